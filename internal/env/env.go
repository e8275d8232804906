// Package env resolves the settings files consumed by the built binaries and
// produces the shell fragment and child environment that point at them.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/qiniu/x/log"
)

const (
	ServerSettingsVar = "SERVER_SETTINGS"
	ClientSettingsVar = "CLIENT_SETTINGS"
	ProjectDirVar     = "PROJECT_DIR"
)

// Paths holds absolute paths, computed once per run.
type Paths struct {
	ServerSettings string
	ClientSettings string
	Fragment       string
}

// Resolve makes server, client and fragment absolute. Relative inputs are
// taken relative to root.
func Resolve(root, server, client, fragment string) (Paths, error) {
	var p Paths
	for _, x := range []struct {
		dst *string
		src string
	}{
		{&p.ServerSettings, server},
		{&p.ClientSettings, client},
		{&p.Fragment, fragment},
	} {
		path := x.src
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return Paths{}, err
		}
		*x.dst = abs
	}
	return p, nil
}

// WriteFragment overwrites the fragment file with one export line per
// settings file. Settings file contents are never read; a missing file
// is only reported.
func WriteFragment(p Paths) error {
	for _, s := range []string{p.ServerSettings, p.ClientSettings} {
		if _, err := os.Stat(s); err != nil {
			log.Warnf("settings file %s: %v", s, err)
		}
	}
	f, err := os.Create(p.Fragment)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "export %s=\"%s\"\nexport %s=\"%s\"\n",
		ServerSettingsVar, p.ServerSettings,
		ClientSettingsVar, p.ClientSettings)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Debugf("wrote %s", p.Fragment)
	return nil
}

// Vars returns the variables the fragment exports plus PROJECT_DIR.
func (p Paths) Vars(root string) map[string]string {
	return map[string]string{
		ServerSettingsVar: p.ServerSettings,
		ClientSettingsVar: p.ClientSettings,
		ProjectDirVar:     root,
	}
}

// LoadDotenv reads a dotenv file. A missing file yields no variables.
func LoadDotenv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return vars, nil
}

// Merge overlays override on a KEY=VALUE environment and returns the
// result sorted by key.
func Merge(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(override))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
