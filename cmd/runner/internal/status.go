package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgwlab/runner/internal/build"
	"github.com/pgwlab/runner/internal/config"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the result of the last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(cmd)
			if err != nil {
				return err
			}
			dir := config.BuildDir(s.root)
			rec, err := build.LoadRecord(dir)
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("no run recorded in %s", dir)
			}
			if err != nil {
				return fmt.Errorf("failed to read run record: %w", err)
			}
			printRecord(cmd, rec)
			return nil
		},
	}
}

func printRecord(cmd *cobra.Command, rec *build.Record) {
	w := cmd.OutOrStdout()
	result := "ok"
	if !rec.OK {
		result = fmt.Sprintf("failed at %s (exit %d)", rec.Step, rec.ExitCode)
	}
	launcher := rec.CompilerLauncher
	if launcher == "" {
		launcher = "none"
	}
	fmt.Fprintf(w, "build type:  %s\n", rec.BuildType)
	fmt.Fprintf(w, "env file:    %v\n", rec.EmitEnvFile)
	fmt.Fprintf(w, "launcher:    %s\n", launcher)
	fmt.Fprintf(w, "result:      %s\n", result)
	if rec.Error != "" {
		fmt.Fprintf(w, "error:       %s\n", rec.Error)
	}
	fmt.Fprintf(w, "started:     %s\n", rec.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "duration:    %s\n", rec.Duration().Round(time.Millisecond))
}
