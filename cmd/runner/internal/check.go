package internal

import (
	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"

	"github.com/pgwlab/runner/internal/toolchain"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the build tools are installed",
		Long:  `Check looks up cmake, ctest, ninja and the compiler launcher, and verifies the cmake version.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(cmd)
			if err != nil {
				return err
			}
			return a.runCheck(cmd, toolchain.Options{
				Launcher:        s.cfg.Launcher(),
				MinCMakeVersion: s.cfg.MinCMakeVersion,
			})
		},
	}
}

func (a *app) runCheck(cmd *cobra.Command, opts toolchain.Options) error {
	rep := a.probe(cmd.Context(), opts)
	w := cmd.OutOrStdout()
	for _, t := range rep.Tools {
		if t.Err != nil {
			colorstring.Fprintf(w, "[red][bold]  ->[reset] %s: %v\n", t.Name, t.Err)
			continue
		}
		colorstring.Fprintf(w, "[green][bold]  ->[reset] %s: %s\n", t.Name, t.Path)
	}
	if rep.CMakeVersion != "" {
		colorstring.Fprintf(w, "[blue][bold]==>[default] cmake %s\n", rep.CMakeVersion)
	}
	if !rep.OK() {
		colorstring.Fprintf(w, "[red][bold]==>[default] toolchain incomplete\n")
		return rep.Err()
	}
	colorstring.Fprintf(w, "[green][bold]==>[default] toolchain ready\n")
	return nil
}
