package toolchain

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeLookPath(missing ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, m := range missing {
			if m == name {
				return "", exec.ErrNotFound
			}
		}
		return "/usr/bin/" + name, nil
	}
}

func fakeOutput(out string, err error) func(context.Context, string, ...string) ([]byte, error) {
	return func(context.Context, string, ...string) ([]byte, error) {
		return []byte(out), err
	}
}

func TestParseCMakeVersion(t *testing.T) {
	for _, tc := range []struct {
		out, want string
	}{
		{"cmake version 3.28.1\n\nCMake suite maintained and supported by Kitware (kitware.com/cmake).\n", "v3.28.1"},
		{"cmake version 3.22.1", "v3.22.1"},
		{"cmake version 4.0.0-rc2", "v4.0.0"},
		{"cmake version 3.16", "v3.16.0"},
	} {
		got, err := ParseCMakeVersion(tc.out)
		require.NoError(t, err, tc.out)
		assert.Equal(t, tc.want, got)
	}
	_, err := ParseCMakeVersion("ninja 1.11")
	assert.Error(t, err)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "v3.16.0", Canonical("3.16"))
	assert.Equal(t, "v3.16.2", Canonical("v3.16.2"))
	assert.Equal(t, "", Canonical("three"))
}

func TestCheckOK(t *testing.T) {
	rep := Check(context.Background(), Options{
		Launcher:        "ccache",
		MinCMakeVersion: "3.16",
		LookPath:        fakeLookPath(),
		Output:          fakeOutput("cmake version 3.28.1\n", nil),
	})
	require.True(t, rep.OK())
	require.NoError(t, rep.Err())
	assert.Equal(t, "v3.28.1", rep.CMakeVersion)

	var names []string
	for _, tl := range rep.Tools {
		names = append(names, tl.Name)
	}
	assert.Equal(t, []string{"cmake", "ctest", "ninja", "ccache"}, names)
}

func TestCheckMissingTool(t *testing.T) {
	rep := Check(context.Background(), Options{
		LookPath: fakeLookPath("ninja"),
		Output:   fakeOutput("cmake version 3.28.1\n", nil),
	})
	assert.False(t, rep.OK())
	assert.ErrorIs(t, rep.Err(), exec.ErrNotFound)
	assert.Contains(t, rep.Err().Error(), "ninja")
}

func TestCheckTooOld(t *testing.T) {
	rep := Check(context.Background(), Options{
		MinCMakeVersion: "3.20",
		LookPath:        fakeLookPath(),
		Output:          fakeOutput("cmake version 3.16.3\n", nil),
	})
	assert.False(t, rep.OK())
	assert.ErrorIs(t, rep.Err(), ErrTooOld)
}

func TestCheckVersionQueryFails(t *testing.T) {
	boom := errors.New("boom")
	rep := Check(context.Background(), Options{
		MinCMakeVersion: "3.16",
		LookPath:        fakeLookPath(),
		Output:          fakeOutput("", boom),
	})
	assert.ErrorIs(t, rep.Err(), boom)
}

func TestCheckInvalidMinimum(t *testing.T) {
	rep := Check(context.Background(), Options{
		MinCMakeVersion: "latest",
		LookPath:        fakeLookPath(),
		Output:          fakeOutput("cmake version 3.28.1", nil),
	})
	assert.False(t, rep.OK())
}

func TestCheckSkipsVersionWhenCMakeMissing(t *testing.T) {
	called := false
	rep := Check(context.Background(), Options{
		MinCMakeVersion: "3.16",
		LookPath:        fakeLookPath("cmake"),
		Output: func(context.Context, string, ...string) ([]byte, error) {
			called = true
			return nil, nil
		},
	})
	assert.False(t, called)
	assert.False(t, rep.OK())
	assert.Empty(t, rep.CMakeVersion)
}
