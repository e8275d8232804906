package env

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/syntax"
)

func TestResolve(t *testing.T) {
	root := t.TempDir()
	p, err := Resolve(root, "settings/server_settings.json", "/etc/client.json", "scripts/set_env.sh")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "settings", "server_settings.json"), p.ServerSettings)
	assert.Equal(t, "/etc/client.json", p.ClientSettings)
	assert.Equal(t, filepath.Join(root, "scripts", "set_env.sh"), p.Fragment)
}

func TestResolveCleansDotDot(t *testing.T) {
	root := t.TempDir()
	p, err := Resolve(filepath.Join(root, "scripts"), "../settings/s.json", "../settings/c.json", "set_env.sh")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "settings", "s.json"), p.ServerSettings)
	assert.Equal(t, filepath.Join(root, "settings", "c.json"), p.ClientSettings)
}

func testPaths(t *testing.T) Paths {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scripts"), 0o755))
	p, err := Resolve(root, "settings/server_settings.json", "settings/client_settings.json", "scripts/set_env.sh")
	require.NoError(t, err)
	return p
}

func TestWriteFragment(t *testing.T) {
	p := testPaths(t)
	require.NoError(t, WriteFragment(p))

	data, err := os.ReadFile(p.Fragment)
	require.NoError(t, err)
	want := "export SERVER_SETTINGS=\"" + p.ServerSettings + "\"\n" +
		"export CLIENT_SETTINGS=\"" + p.ClientSettings + "\"\n"
	assert.Equal(t, want, string(data))
}

func TestWriteFragmentOverwrites(t *testing.T) {
	p := testPaths(t)
	require.NoError(t, os.WriteFile(p.Fragment, []byte("stale\nstale\nstale\nstale\n"), 0o644))

	require.NoError(t, WriteFragment(p))
	require.NoError(t, WriteFragment(p))

	data, err := os.ReadFile(p.Fragment)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.NotContains(t, string(data), "stale")
}

func TestWriteFragmentIsShell(t *testing.T) {
	p := testPaths(t)
	require.NoError(t, WriteFragment(p))

	f, err := os.Open(p.Fragment)
	require.NoError(t, err)
	defer f.Close()
	file, err := syntax.NewParser().Parse(f, p.Fragment)
	require.NoError(t, err)
	require.Len(t, file.Stmts, 2)

	var names []string
	for _, st := range file.Stmts {
		decl, ok := st.Cmd.(*syntax.DeclClause)
		require.True(t, ok, "statement is not a declaration")
		assert.Equal(t, "export", decl.Variant.Value)
		require.Len(t, decl.Args, 1)
		names = append(names, decl.Args[0].Name.Value)
	}
	assert.Equal(t, []string{ServerSettingsVar, ClientSettingsVar}, names)

	data, err := os.ReadFile(p.Fragment)
	require.NoError(t, err)
	vars, err := godotenv.Unmarshal(string(data))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		ServerSettingsVar: p.ServerSettings,
		ClientSettingsVar: p.ClientSettings,
	}, vars)
}

func TestWriteFragmentMissingDir(t *testing.T) {
	p := testPaths(t)
	p.Fragment = filepath.Join(t.TempDir(), "missing", "set_env.sh")
	err := WriteFragment(p)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVars(t *testing.T) {
	p := Paths{ServerSettings: "/s.json", ClientSettings: "/c.json"}
	assert.Equal(t, map[string]string{
		"SERVER_SETTINGS": "/s.json",
		"CLIENT_SETTINGS": "/c.json",
		"PROJECT_DIR":     "/p",
	}, p.Vars("/p"))
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CC=clang\nexport CXX=clang++\n"), 0o644))

	vars, err := LoadDotenv(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"CC": "clang", "CXX": "clang++"}, vars)

	vars, err = LoadDotenv(filepath.Join(dir, "none"))
	require.NoError(t, err)
	assert.Nil(t, vars)

	vars, err = LoadDotenv("")
	require.NoError(t, err)
	assert.Nil(t, vars)
}

func TestMerge(t *testing.T) {
	got := Merge([]string{"B=1", "A=0", "broken"}, map[string]string{"B": "2", "C": "3"})
	assert.Equal(t, []string{"A=0", "B=2", "C=3"}, got)
}
