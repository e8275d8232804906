package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/qiniu/x/log"
)

// Runner executes one external command in dir and blocks until it exits.
// A non-zero exit is reported as an error with an ExitCode() int method.
type Runner interface {
	Run(ctx context.Context, dir string, argv ...string) error
}

// ExecRunner runs commands as child processes, forwarding their output.
type ExecRunner struct {
	Env    []string // nil inherits the process environment
	Stdout io.Writer
	Stderr io.Writer
}

func NewExecRunner(env []string) *ExecRunner {
	return &ExecRunner{Env: env, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ExecRunner) Run(ctx context.Context, dir string, argv ...string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = r.Env
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	log.Debugf("exec %s in %s", cmd.String(), dir)
	return cmd.Run()
}

// DryRunner prints each command instead of running it.
type DryRunner struct {
	Out io.Writer
}

func (r DryRunner) Run(_ context.Context, dir string, argv ...string) error {
	_, err := fmt.Fprintf(r.Out, "(cd %s && %s)\n", dir, strings.Join(argv, " "))
	return err
}

// ExitCode returns the exit status carried by err: 0 for nil, the child's
// code if a command exited non-zero, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec interface{ ExitCode() int }
	if errors.As(err, &ec) {
		if code := ec.ExitCode(); code > 0 {
			return code
		}
	}
	return 1
}
