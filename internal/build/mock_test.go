package build

import (
	"context"
	"fmt"
	"slices"
)

// exitStatus mimics *exec.ExitError for a command that exited non-zero.
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitStatus) ExitCode() int { return int(e) }

type call struct {
	dir  string
	argv []string
}

// mockRunner implements Runner, recording every command. failOn maps a
// program plus first argument ("cmake --build") or a program ("ctest")
// to the error it returns.
type mockRunner struct {
	calls  []call
	failOn map[string]error
}

func (m *mockRunner) Run(_ context.Context, dir string, argv ...string) error {
	m.calls = append(m.calls, call{dir: dir, argv: slices.Clone(argv)})
	if len(argv) > 1 {
		if err, ok := m.failOn[argv[0]+" "+argv[1]]; ok {
			return err
		}
	}
	return m.failOn[argv[0]]
}

func (m *mockRunner) programs() []string {
	var out []string
	for _, c := range m.calls {
		name := c.argv[0]
		if name == "cmake" && len(c.argv) > 1 && c.argv[1] == "--build" {
			name = "cmake --build"
		}
		out = append(out, name)
	}
	return out
}

func newMockRunner() *mockRunner {
	return &mockRunner{failOn: map[string]error{}}
}
