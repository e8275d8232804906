package internal

import (
	"github.com/spf13/cobra"

	"github.com/pgwlab/runner/internal/build"
)

func (a *app) runBuild(cmd *cobra.Command, args []string) error {
	s, err := a.load(cmd)
	if err != nil {
		return err
	}
	buildType := build.DefaultBuildType
	if len(args) > 0 {
		buildType = args[0]
	}
	childEnv, err := a.childEnv(s)
	if err != nil {
		return err
	}

	r := a.newRunner(childEnv, a.flags.dryRun, cmd.OutOrStdout())
	b := build.NewBuilder(build.Options{
		Root:             s.root,
		EmitEnvFile:      s.cfg.EmitEnvFile,
		Env:              s.paths,
		CompilerLauncher: s.cfg.Launcher(),
		ConfigureArgs:    s.extra,
		Banner:           !a.flags.dryRun,
		Record:           !a.flags.dryRun,
	}, r)
	return b.Run(cmd.Context(), buildType)
}
