package publish

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vk/portabundle/internal/config"
)

// Credential variables.
const (
	EnvAccessKey = "PORTABUNDLE_S3_ACCESS_KEY"
	EnvSecretKey = "PORTABUNDLE_S3_SECRET_KEY"
)

// Env looks up variables in the process environment first, then in the
// values read from a .env file.
type Env struct {
	file map[string]string
}

// LoadEnv reads dotenvPath if it exists. An empty path reads nothing.
func LoadEnv(dotenvPath string) (*Env, error) {
	e := &Env{file: map[string]string{}}
	if dotenvPath == "" {
		return e, nil
	}
	values, err := godotenv.Read(dotenvPath)
	if errors.Is(err, fs.ErrNotExist) {
		return e, nil
	}
	if err != nil {
		return nil, err
	}
	e.file = values
	return e, nil
}

// Get returns the trimmed value of key.
func (e *Env) Get(key string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(e.file[key])
}

// S3ConfigFor combines a publish block with credentials from e.
func S3ConfigFor(def *config.PublishDefinition, e *Env) S3Config {
	return S3Config{
		Endpoint:  def.Endpoint,
		Region:    def.Region,
		AccessKey: e.Get(EnvAccessKey),
		SecretKey: e.Get(EnvSecretKey),
		Bucket:    def.Bucket,
		UseSSL:    def.UseSSL,
	}
}
