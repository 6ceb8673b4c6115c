package cli

import (
	"approachlog/internal/di"
	"approachlog/internal/models"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	config    string
	backupDir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := &cliEnv{
		config:    filepath.Join(dir, "config.yaml"),
		backupDir: filepath.Join(dir, "backups"),
	}
	body := fmt.Sprintf(`
webServer:
  port: 18090
storage:
  path: %s
backup:
  enabled: true
  dir: %s
logger:
  level: warn
  dir: %s
cache:
  enabled: true
  size: 1
metrics:
  enabled: false
`, filepath.Join(dir, "approaches.db"), env.backupDir, dir)
	require.NoError(t, os.WriteFile(env.config, []byte(body), 0644))
	return env
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(Factories{Core: di.InitCore, App: di.InitApp})
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.Execute()
	return buf.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestInvalidFormat(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "--format", "xml", "list")
	assert.Error(t, err)
}

func TestMissingConfigIsCommandError(t *testing.T) {
	root := NewRootCommand(Factories{Core: di.InitCore, App: di.InitApp})
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "list"})

	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAddListGetDelete(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "--format", "json", "add", "--name", "João Silva", "--rg", "111",
		"--location", "Praça Central", "--date", "2024-01-01", "--companion", "Pedro")
	var rec models.ApproachRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "João Silva", rec.Name)
	require.Len(t, rec.People, 2)
	assert.Equal(t, "Pedro", rec.People[1].Name)

	out = env.mustRun(t, "list")
	assert.Contains(t, out, rec.ID)
	assert.Contains(t, out, "rg:111")
	assert.Contains(t, out, "+1")

	out = env.mustRun(t, "get", rec.ID)
	assert.Contains(t, out, "location:     Praça Central")

	env.mustRun(t, "delete", rec.ID)
	_, err := env.run(t, "get", rec.ID)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out = env.mustRun(t, "list")
	assert.Equal(t, "no approaches\n", out)
}

func TestAddRequiresName(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "add", "--rg", "1")
	assert.Error(t, err)
}

func TestSearchPeopleRelatedProfile(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "add", "--person-id", "p1", "--name", "João Silva", "--rg", "111", "--date", "2024-01-01")
	env.mustRun(t, "add", "--person-id", "p1", "--name", "João Silva", "--rg", "111", "--mother", "Maria", "--date", "2024-02-01", "--plate", "ABC1D23")
	env.mustRun(t, "add", "--name", "Ana Costa", "--date", "2024-03-01")

	out := env.mustRun(t, "--format", "json", "search", "silva")
	var found []models.ApproachRecord
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found, 2)
	assert.Equal(t, "2024-02-01", found[0].Date)

	out = env.mustRun(t, "--format", "json", "search", "--plate", "abc1")
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	assert.Len(t, found, 1)

	out = env.mustRun(t, "people", "JOÃO")
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "mother:Maria")

	out = env.mustRun(t, "--format", "json", "related", "p1")
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	assert.Len(t, found, 2)

	out = env.mustRun(t, "profile", "p1")
	assert.Contains(t, out, "mother:Maria")

	_, err := env.run(t, "profile", "nobody")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestExportImportRoundTrip(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "add", "--name", "Ana", "--date", "2024-01-01")
	env.mustRun(t, "add", "--name", "Beto", "--date", "2024-01-02")

	file := filepath.Join(t.TempDir(), "manual.json")
	out := env.mustRun(t, "export", "--out", file)
	assert.Equal(t, "backup written\n", out)
	assert.FileExists(t, file)

	entries, err := os.ReadDir(env.backupDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	env.mustRun(t, "add", "--name", "Caio", "--date", "2024-01-03")

	out = env.mustRun(t, "--format", "json", "import", "--in", file)
	assert.JSONEq(t, `{"restored": 2}`, out)

	out = env.mustRun(t, "--format", "json", "list")
	var records []models.ApproachRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 2)

	_, err = env.run(t, "import", "--in", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
