// Package cmake wraps the cmake configure/build/ctest workflow.
package cmake

import (
	"context"
	"sort"
)

// Generator is the generator every configure step uses.
const Generator = "Ninja"

// Runner executes one external command in dir and blocks until it exits.
type Runner interface {
	Run(ctx context.Context, dir string, argv ...string) error
}

// CMake drives CMake-based builds inside an existing build directory.
type CMake struct {
	runner    Runner
	sourceDir string
	buildDir  string
	buildType string
	launcher  string
	extra     []string
}

// New returns a CMake that configures sourceDir into buildDir. sourceDir
// is passed to cmake as is, so a relative path is interpreted relative to
// buildDir.
func New(r Runner, sourceDir, buildDir string) *CMake {
	return &CMake{runner: r, sourceDir: sourceDir, buildDir: buildDir}
}

// BuildType sets CMAKE_BUILD_TYPE. The value is not validated.
func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

// CompilerLauncher sets the launcher for both the C and the C++ compiler.
// An empty tool removes it.
func (c *CMake) CompilerLauncher(tool string) *CMake {
	c.launcher = tool
	return c
}

// Args appends raw arguments to the configure command, placed before the
// source directory.
func (c *CMake) Args(args ...string) *CMake {
	c.extra = append(c.extra, args...)
	return c
}

// ConfigureArgs returns the full configure command vector.
func (c *CMake) ConfigureArgs() []string {
	defines := make(map[string]string)
	if c.buildType != "" {
		defines["CMAKE_BUILD_TYPE"] = c.buildType
	}
	if c.launcher != "" {
		defines["CMAKE_C_COMPILER_LAUNCHER"] = c.launcher
		defines["CMAKE_CXX_COMPILER_LAUNCHER"] = c.launcher
	}
	args := []string{"cmake", "-G", Generator}
	args = append(args, definesArgs(defines)...)
	args = append(args, c.extra...)
	return append(args, c.sourceDir)
}

// BuildArgs returns "cmake --build . --parallel".
func (c *CMake) BuildArgs() []string {
	return []string{"cmake", "--build", ".", "--parallel"}
}

// TestArgs returns "ctest --output-on-failure".
func (c *CMake) TestArgs() []string {
	return []string{"ctest", "--output-on-failure"}
}

// Configure runs the configure command in the build directory.
func (c *CMake) Configure(ctx context.Context) error {
	return c.runner.Run(ctx, c.buildDir, c.ConfigureArgs()...)
}

// Build compiles the configured project using all available parallelism.
func (c *CMake) Build(ctx context.Context) error {
	return c.runner.Run(ctx, c.buildDir, c.BuildArgs()...)
}

// Test runs ctest, printing output of failing tests only.
func (c *CMake) Test(ctx context.Context) error {
	return c.runner.Run(ctx, c.buildDir, c.TestArgs()...)
}

// definesArgs renders defines as -D<key>=<value>, sorted by key.
func definesArgs(defines map[string]string) []string {
	if len(defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, "-D"+k+"="+defines[k])
	}
	return args
}
