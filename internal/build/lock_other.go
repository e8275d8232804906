//go:build !unix

package build

import "errors"

// ErrLocked is returned when another run holds the build directory.
var ErrLocked = errors.New("build directory is in use by another run")

func lockBuildDir(string) (unlock func(), err error) {
	return func() {}, nil
}
