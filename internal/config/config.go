// Package config loads the runner configuration.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional YAML file in the project root and command line flags. The
// defaults reproduce the plain script behavior: the env fragment is
// written and no compiler launcher is used.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/shell"
)

const (
	FileName        = "runner.yaml"
	BuildDirName    = "build"
	DefaultLauncher = "ccache"
)

// Config is the resolved configuration of one run.
type Config struct {
	EmitEnvFile      bool   `yaml:"emit_env_file"`
	UseCompilerCache bool   `yaml:"use_compiler_cache"`
	CompilerLauncher string `yaml:"compiler_launcher"`

	EnvFile        string `yaml:"env_file"`
	ServerSettings string `yaml:"server_settings"`
	ClientSettings string `yaml:"client_settings"`
	Dotenv         string `yaml:"dotenv"`

	ConfigureArgs   string `yaml:"configure_args"`
	MinCMakeVersion string `yaml:"min_cmake_version"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		EmitEnvFile:      true,
		UseCompilerCache: false,
		CompilerLauncher: DefaultLauncher,
		EnvFile:          filepath.Join("scripts", "set_env.sh"),
		ServerSettings:   filepath.Join("settings", "server_settings.json"),
		ClientSettings:   filepath.Join("settings", "client_settings.json"),
		Dotenv:           ".env",
		MinCMakeVersion:  "3.16",
	}
}

// Load reads path on top of the defaults. If path is empty, FileName in
// root is used when it exists.
func Load(root, path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Expand expands $VAR and ${VAR} in the path values using getenv.
func (c *Config) Expand(getenv func(string) string) error {
	for _, p := range []*string{&c.EnvFile, &c.ServerSettings, &c.ClientSettings, &c.Dotenv, &c.CompilerLauncher} {
		v, err := shell.Expand(*p, getenv)
		if err != nil {
			return fmt.Errorf("failed to expand %q: %w", *p, err)
		}
		*p = v
	}
	return nil
}

// ExtraConfigureArgs splits ConfigureArgs with shell word rules.
func (c *Config) ExtraConfigureArgs(getenv func(string) string) ([]string, error) {
	if c.ConfigureArgs == "" {
		return nil, nil
	}
	args, err := shell.Fields(c.ConfigureArgs, getenv)
	if err != nil {
		return nil, fmt.Errorf("invalid configure_args: %w", err)
	}
	return args, nil
}

// Launcher returns the compiler launcher, or "" when the compiler cache is
// disabled.
func (c *Config) Launcher() string {
	if !c.UseCompilerCache {
		return ""
	}
	if c.CompilerLauncher == "" {
		return DefaultLauncher
	}
	return c.CompilerLauncher
}

// FindRoot returns the project root for start: the nearest directory
// containing CMakeLists.txt, widened to the outermost parent that still
// contains one.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	root := ""
	for {
		has, err := hasCMakeLists(dir)
		if err != nil {
			return "", err
		}
		if has {
			root = dir
		} else if root != "" {
			return root, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if root == "" {
		return "", fmt.Errorf("no CMakeLists.txt found in %s or any parent", start)
	}
	return root, nil
}

func hasCMakeLists(dir string) (bool, error) {
	_, err := os.Stat(filepath.Join(dir, "CMakeLists.txt"))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("error while searching for project root: %w", err)
}

// BuildDir returns the build directory of root.
func BuildDir(root string) string {
	return filepath.Join(root, BuildDirName)
}
