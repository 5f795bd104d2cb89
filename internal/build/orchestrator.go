package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vk/portabundle/internal/collector"
	"github.com/vk/portabundle/internal/config"
	"github.com/vk/portabundle/internal/ctxlog"
	"github.com/vk/portabundle/internal/digest"
	"github.com/vk/portabundle/internal/launcher"
	"github.com/vk/portabundle/internal/layout"
	"github.com/vk/portabundle/internal/model"
	"github.com/vk/portabundle/internal/pack"
	"github.com/vk/portabundle/internal/report"
	"github.com/vk/portabundle/internal/resolver"
	"github.com/vk/portabundle/internal/storage"
)

// Options tune an Orchestrator. Zero values select defaults.
type Options struct {
	// Workers bounds parallel library collection.
	Workers int
	// OutputDir overrides the manifest output directory.
	OutputDir string
	// DigestCacheSize bounds the file digest cache.
	DigestCacheSize int
	Now             func() time.Time
	NewID           func() string
}

// Result describes a finished build, successful or not.
type Result struct {
	Report     *report.Report
	BundlePath string
	ReportJSON string
	ReportText string
	States     []State
}

// Orchestrator runs builds for one manifest.
type Orchestrator struct {
	manifest *config.Manifest
	resolver *resolver.Resolver
	opts     Options
}

// New creates an orchestrator using the filesystem resolver for m.
func New(m *config.Manifest, opts Options) *Orchestrator {
	return NewWithResolver(m, resolver.NewFromManifest(m), opts)
}

// NewWithResolver creates an orchestrator with a custom resolver.
func NewWithResolver(m *config.Manifest, r *resolver.Resolver, opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.OutputDir == "" {
		opts.OutputDir = m.Path(m.OutputDir)
	}
	return &Orchestrator{manifest: m, resolver: r, opts: opts}
}

// run is the state of a single build.
type run struct {
	*Orchestrator
	id      string
	machine *Machine
	rep     *report.Builder
	agg     *aggregator
	digests *digest.Cache
	staged  *pack.Staged
	started time.Time
}

// Run executes one build. The returned Result is never nil; the error is
// the fatal cause of a failed build.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	id := o.opts.NewID()
	ctx = ctxlog.With(ctx, "build_id", id)
	logger := ctxlog.FromContext(ctx)

	started := o.opts.Now()
	r := &run{
		Orchestrator: o,
		id:           id,
		machine:      NewMachine(),
		rep:          report.NewBuilder(id, started),
		started:      started,
	}
	r.rep.Stage(StateInit.String())
	logger.Info("Build started.", "name", o.manifest.Name, "mode", o.manifest.OutputMode)

	bundlePath, err := r.pipeline(ctx)
	if err != nil {
		return r.fail(ctx, err)
	}
	return r.finish(ctx, bundlePath)
}

func (r *run) pipeline(ctx context.Context) (string, error) {
	digests, err := digest.NewCache(r.opts.DigestCacheSize)
	if err != nil {
		return "", err
	}
	r.digests = digests
	pruner, err := layout.NewPruner(r.manifest.Prune)
	if err != nil {
		return "", err
	}
	policy, err := storage.NewPolicy(r.manifest.StoreRaw)
	if err != nil {
		return "", err
	}
	r.agg = newAggregator(r.rep, pruner)

	if err := r.enter(ctx, StateInit, StateResolving); err != nil {
		return "", err
	}
	res, err := r.resolve(ctx)
	if err != nil {
		return "", err
	}

	if err := r.enter(ctx, StateResolving, StateCollecting); err != nil {
		return "", err
	}
	libs := res.Set.LibraryList()
	if err := collector.New(r.digests, r.opts.Workers).CollectAll(ctx, libs, r.agg); err != nil {
		return "", err
	}

	if err := r.enter(ctx, StateCollecting, StateAssembling); err != nil {
		return "", err
	}
	manifest, err := r.assemble(ctx, res, policy)
	if err != nil {
		return "", err
	}
	p := pack.New(r.opts.OutputDir)
	p.Modified = r.started
	staged, err := p.Stage(ctx, manifest, r.id)
	if err != nil {
		return "", fmt.Errorf("failed to stage bundle: %w", err)
	}
	r.staged = staged

	if err := r.enter(ctx, StateAssembling, StateFinalizing); err != nil {
		return "", err
	}
	bundlePath, err := staged.Commit()
	if err != nil && bundlePath != "" {
		ctxlog.FromContext(ctx).Warn("Bundle committed with cleanup errors.", "error", err)
		r.agg.warn("bundle committed with cleanup errors: %v", err)
		return bundlePath, nil
	}
	return bundlePath, err
}

// enter checks for cancellation between stages and moves the machine.
func (r *run) enter(ctx context.Context, from, to State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.machine.Transition(from, to); err != nil {
		return err
	}
	r.rep.Stage(to.String())
	ctxlog.FromContext(ctx).Debug("Build stage entered.", "stage", to.String())
	return nil
}

func (r *run) resolve(ctx context.Context) (*resolver.Resolution, error) {
	m := r.manifest
	res, err := r.resolver.Resolve(ctx, resolver.Request{
		Modules:    m.ExplicitModules,
		Libraries:  m.ExplicitLibraries,
		Exclusions: m.ExcludedPatterns,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		r.agg.warn("%s", w)
	}
	for _, name := range res.Excluded {
		r.rep.Exclude(name)
	}
	return res, nil
}

func (r *run) assemble(ctx context.Context, res *resolver.Resolution, policy *storage.Policy) (*model.BundleManifest, error) {
	m := r.manifest
	asm := layout.NewAssembler(r.digests)

	entry, err := asm.Entry(m.Path(m.EntryPoint))
	if err != nil {
		return nil, err
	}
	r.agg.add(entry)

	for _, mod := range res.Modules {
		files, err := r.resolver.Finder.Files(mod)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", mod.Name, err)
		}
		for _, f := range files {
			dest, err := layout.RelativeDestination("", mod.Root, f)
			if err != nil {
				return nil, fmt.Errorf("module %s: %w", mod.Name, err)
			}
			art, err := asm.File(f, dest, model.KindData, mod.Name)
			if err != nil {
				return nil, fmt.Errorf("module %s: %w", mod.Name, err)
			}
			r.agg.add(art)
		}
	}

	for _, d := range m.Data {
		arts, err := asm.Tree(m.Path(d.Source), d.Destination, model.KindData, "data:"+d.Source)
		if err != nil {
			return nil, fmt.Errorf("data %s: %w", d.Source, err)
		}
		r.agg.add(arts...)
	}

	if m.Launcher.Enabled {
		arts, err := launcher.Generate(launcher.Options{
			Settings:    m.Settings(),
			LibraryDirs: r.agg.libraryDirs(),
			ExtraPath:   m.Launcher.ExtraPath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate launchers: %w", err)
		}
		r.agg.add(arts...)
	}

	r.agg.recordCollisions()
	manifest, err := layout.Assemble(m.Settings(), r.agg.idx, policy)
	if err != nil {
		return nil, err
	}
	if err := (storage.Guard{}).Verify(manifest); err != nil {
		return nil, err
	}
	r.rep.Include(manifest.Artifacts())
	ctxlog.FromContext(ctx).Info("Bundle assembled.", "artifacts", manifest.Len(), "pruned", r.agg.pruned)
	return manifest, nil
}

func (r *run) fail(ctx context.Context, cause error) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	if r.staged != nil {
		if err := r.staged.Discard(); err != nil {
			logger.Warn("Failed to remove staging output.", "error", err)
		}
	}
	if !IsTerminal(r.machine.Current()) {
		if err := r.machine.Fail(); err != nil {
			cause = errors.Join(cause, err)
		}
	}
	r.rep.Error(cause)
	if final := pack.FinalPath(r.opts.OutputDir, r.manifest.Settings()); final != filepath.Clean(r.opts.OutputDir) {
		if _, err := os.Stat(final); err == nil {
			r.rep.MarkStale(final)
		}
	}
	rep := r.rep.Finish(report.StatusFailed, r.opts.Now())
	logger.Error("Build failed.", "stage", rep.Stage, "error", cause)

	res := &Result{Report: rep, States: r.machine.History()}
	if err := r.writeReport(res); err != nil {
		cause = errors.Join(cause, err)
	}
	return res, cause
}

func (r *run) finish(ctx context.Context, bundlePath string) (*Result, error) {
	if err := r.machine.Transition(StateFinalizing, StateSucceeded); err != nil {
		return r.fail(ctx, err)
	}
	r.rep.SetBundlePath(bundlePath)
	rep := r.rep.Finish(report.StatusSucceeded, r.opts.Now())
	res := &Result{Report: rep, BundlePath: bundlePath, States: r.machine.History()}
	if err := r.writeReport(res); err != nil {
		return res, err
	}
	ctxlog.FromContext(ctx).Info("Build succeeded.",
		"bundle", bundlePath,
		"artifacts", len(rep.Included),
		"warnings", len(rep.Warnings),
		"skipped", len(rep.Skipped),
	)
	return res, nil
}

func (r *run) writeReport(res *Result) error {
	jsonPath, textPath, err := res.Report.WriteFiles(r.opts.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to write build report: %w", err)
	}
	res.ReportJSON, res.ReportText = jsonPath, textPath
	return nil
}
