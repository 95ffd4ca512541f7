package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dbkitCmd runs the root command against the sqlite file at dsn and returns
// stdout.
func dbkitCmd(t *testing.T, dsn string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--driver", "sqlite", "--dsn", dsn}, args...))
	err := root.Execute()
	return out.String(), err
}

func newUsersDB(t *testing.T) string {
	t.Helper()
	t.Setenv("DBKIT_DSN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DBKIT_DRIVER", "")
	dsn := filepath.Join(t.TempDir(), "cli.db")
	_, err := dbkitCmd(t, dsn, "exec", "CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT, email TEXT)")
	require.NoError(t, err)
	return dsn
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func TestCLI_InsertAndQuery(t *testing.T) {
	dsn := newUsersDB(t)

	out, err := dbkitCmd(t, dsn, "insert", "users", `{"username":"user1","email":"user1@gmail.com","ignore":1}`, "--exclude", "ignore")
	require.NoError(t, err)
	assert.Equal(t, int64(1), decode[affected](t, out).RowsAffected)

	out, err = dbkitCmd(t, dsn, "query", "SELECT username, email FROM users WHERE username = $1", "user1")
	require.NoError(t, err)
	rows := decode[[]map[string]any](t, out)
	require.Len(t, rows, 1)
	assert.Equal(t, "user1@gmail.com", rows[0]["email"])

	out, err = dbkitCmd(t, dsn, "first", "SELECT * FROM users WHERE username = $1", "nobody")
	require.NoError(t, err)
	assert.Equal(t, "null\n", out)

	out, err = dbkitCmd(t, dsn, "scalar", "SELECT COUNT(*) FROM users")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestCLI_InsertReturningUpdateDelete(t *testing.T) {
	dsn := newUsersDB(t)

	out, err := dbkitCmd(t, dsn, "insert-returning", "users", `{"username":"user1","email":"a@b.c"}`)
	require.NoError(t, err)
	assert.Equal(t, float64(1), decode[float64](t, out))

	out, err = dbkitCmd(t, dsn, "update", "users", `{"username":"user1","email":"changed@gmail.com"}`, "--pk", "username")
	require.NoError(t, err)
	assert.Equal(t, int64(1), decode[affected](t, out).RowsAffected)

	out, err = dbkitCmd(t, dsn, "select", "users", "--columns", "email", "--where", "username = ?", "--arg", "user1")
	require.NoError(t, err)
	rows := decode[[]map[string]any](t, out)
	require.Len(t, rows, 1)
	assert.Equal(t, "changed@gmail.com", rows[0]["email"])

	out, err = dbkitCmd(t, dsn, "delete", "users", "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), decode[affected](t, out).RowsAffected)

	out, err = dbkitCmd(t, dsn, "query", "SELECT * FROM users")
	require.NoError(t, err)
	assert.Empty(t, decode[[]map[string]any](t, out))
}

func TestCLI_Errors(t *testing.T) {
	dsn := newUsersDB(t)

	_, err := dbkitCmd(t, dsn, "insert", "users", `{"nope":1}`)
	assert.Error(t, err)

	_, err = dbkitCmd(t, dsn, "insert", "users", `not json`)
	assert.Error(t, err)

	_, err = dbkitCmd(t, dsn, "select", "users", "--where", "id = ? AND email = ?", "--arg", "1")
	assert.Error(t, err)

	_, err = dbkitCmd(t, dsn, "query")
	assert.Error(t, err)
}

func TestCLI_MetricsAndTrace(t *testing.T) {
	dsn := newUsersDB(t)
	out, err := dbkitCmd(t, dsn, "--metrics", "--trace", "--log-level", "error", "exec", "DELETE FROM users")
	require.NoError(t, err)
	assert.Equal(t, int64(0), decode[affected](t, out).RowsAffected)
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, version()+"\n", out.String())
}

func TestParseParam(t *testing.T) {
	cases := map[string]any{
		"42":      int64(42),
		"-1.5":    -1.5,
		"true":    true,
		"null":    nil,
		"user1":   "user1",
		`"42"`:    "42",
		"a@b.com": "a@b.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, parseParam(in), in)
	}
}

func TestCountMarkers(t *testing.T) {
	assert.Equal(t, 2, countMarkers("a = ? AND b = ?"))
	assert.Equal(t, 1, countMarkers("a = '?' OR b = ?"))
	assert.Equal(t, 0, countMarkers("a IS NULL"))
}
