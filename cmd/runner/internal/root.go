package internal

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/pgwlab/runner/internal/build"
	"github.com/pgwlab/runner/internal/config"
	"github.com/pgwlab/runner/internal/env"
	"github.com/pgwlab/runner/internal/toolchain"
)

type rootFlags struct {
	root    string
	config  string
	emitEnv bool
	ccache  bool
	dryRun  bool
	verbose bool
}

// app carries the flags and the seams the commands use.
type app struct {
	flags     rootFlags
	getenv    func(string) string
	environ   func() []string
	getwd     func() (string, error)
	newRunner func(env []string, dryRun bool, out io.Writer) build.Runner
	probe     func(ctx context.Context, opts toolchain.Options) *toolchain.Report
}

func defaultApp() *app {
	return &app{
		getenv:  os.Getenv,
		environ: os.Environ,
		getwd:   os.Getwd,
		newRunner: func(env []string, dryRun bool, out io.Writer) build.Runner {
			if dryRun {
				return build.DryRunner{Out: out}
			}
			return build.NewExecRunner(env)
		},
		probe: toolchain.Check,
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runner [build-type]",
		Short: "runner configures, builds and tests the project",
		Long: `runner prepares the build directory of a CMake project, configures it with
the Ninja generator, builds it and runs its tests, stopping at the first
failure. The build type defaults to Debug and is passed to CMake as is.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.flags.verbose {
				log.SetOutputLevel(log.Ldebug)
			} else {
				log.SetOutputLevel(log.Linfo)
			}
		},
		RunE: a.runBuild,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.root, "root", "", "Project root (default: nearest directory with CMakeLists.txt)")
	pf.StringVar(&a.flags.config, "config", "", "Config file (default: <root>/"+config.FileName+")")
	pf.BoolVar(&a.flags.emitEnv, "emit-env", true, "Write the settings env fragment before building")
	pf.BoolVar(&a.flags.ccache, "ccache", false, "Use the compiler launcher for C and C++")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().BoolVarP(&a.flags.dryRun, "dry-run", "n", false, "Print the commands instead of running them")

	cmd.AddCommand(newCheckCmd(a), newStatusCmd(a))
	return cmd
}

// Execute runs the command line and returns the process exit code: the
// code of the failing build tool, or 1 for any other error.
func Execute() int {
	err := newRootCmd(defaultApp()).Execute()
	if err != nil {
		log.Error(err)
		return build.ExitCode(err)
	}
	return 0
}

// setup is the resolved state shared by all commands.
type setup struct {
	root  string
	cfg   config.Config
	paths env.Paths
	extra []string
}

func (a *app) load(cmd *cobra.Command) (*setup, error) {
	root := a.flags.root
	if root == "" {
		wd, err := a.getwd()
		if err != nil {
			return nil, err
		}
		if root, err = config.FindRoot(wd); err != nil {
			return nil, err
		}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root, a.flags.config)
	if err != nil {
		return nil, err
	}
	if err := cfg.Expand(a.getenv); err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("emit-env") {
		cfg.EmitEnvFile = a.flags.emitEnv
	}
	if flags.Changed("ccache") {
		cfg.UseCompilerCache = a.flags.ccache
	}

	paths, err := env.Resolve(root, cfg.ServerSettings, cfg.ClientSettings, cfg.EnvFile)
	if err != nil {
		return nil, err
	}
	extra, err := cfg.ExtraConfigureArgs(a.getenv)
	if err != nil {
		return nil, err
	}
	log.Debugf("root %s, emit env %v, launcher %q", root, cfg.EmitEnvFile, cfg.Launcher())
	return &setup{root: root, cfg: cfg, paths: paths, extra: extra}, nil
}

// childEnv returns the environment of the external tools.
func (a *app) childEnv(s *setup) ([]string, error) {
	dotenv := s.cfg.Dotenv
	if dotenv != "" && !filepath.IsAbs(dotenv) {
		dotenv = filepath.Join(s.root, dotenv)
	}
	vars, err := env.LoadDotenv(dotenv)
	if err != nil {
		return nil, err
	}
	if s.cfg.EmitEnvFile {
		if vars == nil {
			vars = make(map[string]string)
		}
		for k, v := range s.paths.Vars(s.root) {
			vars[k] = v
		}
	}
	return env.Merge(a.environ(), vars), nil
}
