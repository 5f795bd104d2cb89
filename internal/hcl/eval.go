package hcl

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// functions available to manifest expressions.
var functions = map[string]function.Function{
	"lower":    stdlib.LowerFunc,
	"upper":    stdlib.UpperFunc,
	"concat":   stdlib.ConcatFunc,
	"format":   stdlib.FormatFunc,
	"join":     stdlib.JoinFunc,
	"split":    stdlib.SplitFunc,
	"replace":  stdlib.ReplaceFunc,
	"coalesce": stdlib.CoalesceFunc,
	"distinct": stdlib.DistinctFunc,
}

// evalContext exposes the process environment as `env`, the manifest
// directory as `manifest_dir` and the build platform as `platform`.
func (l *Loader) evalContext(dir string) (*hcl.EvalContext, error) {
	environ := os.Environ
	if l.Environ != nil {
		environ = l.Environ
	}
	env := make(map[string]string)
	for _, kv := range environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}

	envVal, err := gocty.ToCtyValue(env, cty.Map(cty.String))
	if err != nil {
		return nil, fmt.Errorf("convert environment: %w", err)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env":          envVal,
			"manifest_dir": cty.StringVal(dir),
			"platform": cty.ObjectVal(map[string]cty.Value{
				"os":   cty.StringVal(runtime.GOOS),
				"arch": cty.StringVal(runtime.GOARCH),
			}),
		},
		Functions: functions,
	}, nil
}
