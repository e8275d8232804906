// Package toolchain verifies that the external build tools are installed.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/qiniu/x/log"
	"golang.org/x/mod/semver"
)

// Tool is one external program a run depends on.
type Tool struct {
	Name string
	Path string // resolved location, empty if missing
	Err  error
}

// Report is the outcome of Check.
type Report struct {
	Tools        []Tool
	CMakeVersion string // canonical semver, e.g. "v3.28.1"
}

// OK reports whether every tool was found and no version check failed.
func (r *Report) OK() bool {
	for _, t := range r.Tools {
		if t.Err != nil {
			return false
		}
	}
	return true
}

// Err joins all tool errors.
func (r *Report) Err() error {
	var errs []error
	for _, t := range r.Tools {
		if t.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, t.Err))
		}
	}
	return errors.Join(errs...)
}

// Options controls Check.
type Options struct {
	Launcher        string // compiler launcher to look up, if any
	MinCMakeVersion string // e.g. "3.16"; empty skips the version check

	// LookPath and Output are replaced in tests.
	LookPath func(file string) (string, error)
	Output   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ErrTooOld is reported for a cmake older than the configured minimum.
var ErrTooOld = errors.New("version too old")

// Check looks up cmake, ctest, ninja and the launcher, and compares the
// cmake version with the minimum.
func Check(ctx context.Context, opts Options) *Report {
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.Output == nil {
		opts.Output = output
	}
	names := []string{"cmake", "ctest", "ninja"}
	if opts.Launcher != "" {
		names = append(names, opts.Launcher)
	}

	rep := &Report{}
	for _, name := range names {
		path, err := opts.LookPath(name)
		rep.Tools = append(rep.Tools, Tool{Name: name, Path: path, Err: err})
		log.Debugf("lookup %s: %q %v", name, path, err)
	}

	cm := &rep.Tools[0]
	if cm.Err != nil || opts.MinCMakeVersion == "" {
		return rep
	}
	out, err := opts.Output(ctx, cm.Path, "--version")
	if err != nil {
		cm.Err = fmt.Errorf("failed to query version: %w", err)
		return rep
	}
	ver, err := ParseCMakeVersion(string(out))
	if err != nil {
		cm.Err = err
		return rep
	}
	rep.CMakeVersion = ver
	minVer := Canonical(opts.MinCMakeVersion)
	if !semver.IsValid(minVer) {
		cm.Err = fmt.Errorf("invalid minimum version %q", opts.MinCMakeVersion)
		return rep
	}
	if semver.Compare(ver, minVer) < 0 {
		cm.Err = fmt.Errorf("%s < %s: %w", ver, minVer, ErrTooOld)
	}
	return rep
}

var versionRE = regexp.MustCompile(`cmake version ([0-9]+(?:\.[0-9]+){0,2})`)

// ParseCMakeVersion extracts the version from "cmake --version" output
// and returns it in canonical semver form.
func ParseCMakeVersion(out string) (string, error) {
	m := versionRE.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("unrecognized cmake version output %q", strings.TrimSpace(out))
	}
	return Canonical(m[1]), nil
}

// Canonical turns "3.16" into "v3.16.0".
func Canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

func output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
