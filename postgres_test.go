package dbkit_test

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechXTT/dbkit"
	"github.com/TechXTT/dbkit/pkg/config"
	"github.com/TechXTT/dbkit/pkg/statement"
)

func TestPostgres_UsersScenario(t *testing.T) {
	_ = godotenv.Load(".env")
	dsn := os.Getenv("DBKIT_TEST_DSN")
	if dsn == "" {
		t.Skip("DBKIT_TEST_DSN not set")
	}
	ctx := context.Background()
	cfg := config.Default()
	cfg.DSN = dsn

	p, err := dbkit.NewPoolFromConfig(ctx, cfg)
	require.NoError(t, err)
	defer p.Close(ctx)

	_, err = p.Execute(ctx, "DROP TABLE IF EXISTS dbkit_users")
	require.NoError(t, err)
	_, err = p.Execute(ctx, `CREATE TABLE dbkit_users (
		id       SERIAL PRIMARY KEY,
		username VARCHAR(50),
		password VARCHAR(50),
		email    VARCHAR(255)
	)`)
	require.NoError(t, err)
	defer p.Execute(ctx, "DROP TABLE dbkit_users")

	obj := user1().Set("ignore", "test")
	_, err = p.Insert(ctx, "dbkit_users", obj)
	require.Error(t, err)

	id, err := p.InsertReturning(ctx, "dbkit_users", obj, "id", "ignore")
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)
	_, err = p.Insert(ctx, "dbkit_users", obj, "ignore")
	require.NoError(t, err)

	got, ok, err := dbkit.QueryFirstAs[user](ctx, p, "SELECT username, password, email FROM dbkit_users WHERE id = $1", id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user1@gmail.com", got.Email)

	n, err := p.Update(ctx, "dbkit_users", statement.Of("username", "user1", "email", "changed@gmail.com"), "username")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = p.Delete(ctx, "dbkit_users", "", id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = p.Execute(ctx, "DELETE FROM dbkit_users")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
