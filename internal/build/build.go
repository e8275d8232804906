package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/colorstring"
	"github.com/qiniu/x/log"

	"github.com/pgwlab/runner/internal/config"
	"github.com/pgwlab/runner/internal/env"
	"github.com/pgwlab/runner/x/cmake"
)

// DefaultBuildType is used when no build type is given.
const DefaultBuildType = "Debug"

// Step names one stage of a run.
type Step string

const (
	StepStart     Step = "start"
	StepEmitEnv   Step = "emit-env"
	StepPrepare   Step = "prepare-dir"
	StepChdir     Step = "chdir"
	StepConfigure Step = "configure"
	StepBuild     Step = "build"
	StepTest      Step = "test"
	StepDone      Step = "done"
)

// StepError reports the step a run failed in.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Options selects what a run does.
type Options struct {
	Root             string // project root, must be absolute
	EmitEnvFile      bool
	Env              env.Paths
	CompilerLauncher string   // empty disables the launcher definitions
	ConfigureArgs    []string // inserted before the source directory
	Banner           bool     // print a banner per step
	Record           bool     // save the run record while holding the build-dir lock
}

// Builder runs the configure, build and test sequence of one project.
type Builder struct {
	opts   Options
	runner Runner
	now    func() time.Time
}

func NewBuilder(opts Options, r Runner) *Builder {
	return &Builder{opts: opts, runner: r, now: time.Now}
}

// BuildDir returns the build directory of the project.
func (b *Builder) BuildDir() string {
	return config.BuildDir(b.opts.Root)
}

// Run executes the steps in order and stops at the first failure. An
// empty buildType means DefaultBuildType.
func (b *Builder) Run(ctx context.Context, buildType string) (err error) {
	if buildType == "" {
		buildType = DefaultBuildType
	}
	rec := &Record{
		BuildType:        buildType,
		EmitEnvFile:      b.opts.EmitEnvFile,
		CompilerLauncher: b.opts.CompilerLauncher,
		Step:             StepStart,
		Start:            b.now(),
	}
	step := func(s Step, fn func() error) error {
		rec.Step = s
		if b.opts.Banner {
			colorstring.Printf("[blue][bold]==>[default] %s\n", s)
		}
		log.Debugf("step %s", s)
		if err := fn(); err != nil {
			return &StepError{Step: s, Err: err}
		}
		return nil
	}

	if b.opts.EmitEnvFile {
		if err := step(StepEmitEnv, func() error { return env.WriteFragment(b.opts.Env) }); err != nil {
			return err
		}
	}
	buildDir := b.BuildDir()
	if err := step(StepPrepare, func() error { return os.MkdirAll(buildDir, 0o755) }); err != nil {
		return err
	}
	if err := step(StepChdir, func() error { return checkDir(buildDir) }); err != nil {
		return err
	}

	unlock, err := lockBuildDir(buildDir)
	if err != nil {
		return &StepError{Step: StepChdir, Err: err}
	}
	defer unlock()
	if b.opts.Record {
		defer func() {
			rec.End = b.now()
			rec.finish(err)
			if werr := saveRecord(buildDir, rec); werr != nil {
				log.Warnf("failed to save run record: %v", werr)
			}
		}()
	}

	cm := cmake.New(b.runner, "..", buildDir).
		BuildType(buildType).
		CompilerLauncher(b.opts.CompilerLauncher).
		Args(b.opts.ConfigureArgs...)

	if err := step(StepConfigure, func() error { return cm.Configure(ctx) }); err != nil {
		return err
	}
	if err := step(StepBuild, func() error { return cm.Build(ctx) }); err != nil {
		return err
	}
	if err := step(StepTest, func() error { return cm.Test(ctx) }); err != nil {
		return err
	}
	rec.Step = StepDone
	return nil
}

// checkDir stands in for entering the directory: every command is started
// with it as working directory, so it has to be an accessible directory.
func checkDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s: %w", dir, errNotDir)
	}
	return nil
}

var errNotDir = errors.New("not a directory")
