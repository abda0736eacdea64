package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycombio/sqlcomment-go/internal/config"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnnotateStdin(t *testing.T) {
	t.Chdir(t.TempDir())

	in := "SELECT 1;\n\nUPDATE t\nSET a = 1;\nSELECT 2"
	out, err := run(t, in, "annotate", "-c", "nightly */ job")
	require.NoError(t, err)
	assert.Equal(t, `/* nightly \*\/ job */ SELECT 1;
/* nightly \*\/ job */ UPDATE t
SET a = 1;
/* nightly \*\/ job */ SELECT 2
`, out)
}

func TestAnnotateNoComment(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "SELECT 1;\n", "annotate")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;\n", out)
}

func TestAnnotateFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.sql"), []byte("SELECT 1;\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.sql"), []byte("DELETE FROM t;\n"), 0o600))

	out, err := run(t, "", "annotate", "--newline", "--policy", "collapse", "--quote", "--dialect", "postgres",
		"-c", "it's\nhere", "a.sql", "b.sql")
	require.NoError(t, err)
	assert.Equal(t, "/* 'it''s here' */\nSELECT 1;\n/* 'it''s here' */\nDELETE FROM t;\n", out)

	_, err = run(t, "", "annotate", "missing.sql")
	assert.Error(t, err)
}

func TestAnnotateConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sqlcomment.yaml"), []byte("comment: from file\nnewline: true\n"), 0o600))

	out, err := run(t, "SELECT 1;", "annotate")
	require.NoError(t, err)
	assert.Equal(t, "/* from file */\nSELECT 1;\n", out)

	out, err = run(t, "SELECT 1;", "annotate", "-c", "from flag")
	require.NoError(t, err)
	assert.Equal(t, "/* from flag */\nSELECT 1;\n", out)
}

func TestBadPolicy(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "SELECT 1;", "annotate", "--policy", "shout")
	assert.ErrorContains(t, err, "invalid policy")
}

func TestExecSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dsn := filepath.Join(dir, "cli.db")

	out, err := run(t, "", "exec", "--driver", "sqlite", "--dsn", dsn, "CREATE TABLE flavors (id INTEGER, flavor TEXT)")
	require.NoError(t, err)
	assert.Equal(t, "0 rows affected\n", out)

	out, err = run(t, "", "exec", "--driver", "sqlite", "--dsn", dsn, "-c", "seed */ DROP TABLE flavors; /*",
		"INSERT INTO flavors VALUES (1, 'rose'), (2, NULL)")
	require.NoError(t, err)
	assert.Equal(t, "2 rows affected\n", out)

	out, err = run(t, "", "exec", "--driver", "sqlite", "--dsn", dsn, "-c", "report", "--query",
		"SELECT id, flavor FROM flavors ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, "id\tflavor\n1\trose\n2\tNULL\n", out)
}

func TestExecErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "", "exec", "SELECT 1")
	assert.ErrorContains(t, err, "--driver is required")

	_, err = run(t, "", "exec", "--driver", "nosuchdriver", "SELECT 1")
	assert.ErrorContains(t, err, "failed to open database")

	_, err = run(t, "", "exec", "--driver", "sqlite")
	assert.Error(t, err, "the statement is required")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "sqlcomment 0.1.0 (commit unknown)\n", out)
}

func TestSplitStatements(t *testing.T) {
	var got []string
	err := splitStatements(strings.NewReader("  \n-- note\nSELECT 1;  \n\n\nSELECT 2;\n"), func(s string) error {
		got = append(got, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"-- note\nSELECT 1;", "SELECT 2;"}, got)
}
