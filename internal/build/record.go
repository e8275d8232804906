package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Build directory layout:
//
//	build/
//	  .runner.json    # record of the last run
//	  .runner.lock    # held while a run is in progress (Unix only)
//	  build.ninja     # generated by cmake
//	  ...
const (
	recordFile = ".runner.json"
	lockFile   = ".runner.lock"
)

// Record describes the last run against a build directory.
type Record struct {
	BuildType        string    `json:"build_type"`
	EmitEnvFile      bool      `json:"emit_env_file"`
	CompilerLauncher string    `json:"compiler_launcher,omitempty"`
	Step             Step      `json:"step"`
	OK               bool      `json:"ok"`
	ExitCode         int       `json:"exit_code"`
	Error            string    `json:"error,omitempty"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
}

func (r *Record) finish(err error) {
	r.OK = err == nil
	r.ExitCode = ExitCode(err)
	r.Error = ""
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration returns how long the run took.
func (r *Record) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// LoadRecord reads the record of the last run in buildDir.
func LoadRecord(buildDir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(buildDir, recordFile))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func saveRecord(buildDir string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(buildDir, recordFile), data, 0o644)
}
