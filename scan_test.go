package dbkit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechXTT/dbkit/pkg/adapter"
)

type Audit struct {
	CreatedAt time.Time `db:"created_at"`
}

type account struct {
	ID       uuid.UUID `db:"id"`
	UserName string
	Email    *string
	Nick     sql.NullString `db:"nick"`
	Age      int32
	Skipped  string `db:"-"`
	*Audit
}

func TestDecode_Struct(t *testing.T) {
	id := uuid.New()
	now := time.Now()
	row := adapter.Row{
		"id":         [16]byte(id),
		"user_name":  []byte("user1"),
		"email":      "user1@gmail.com",
		"nick":       nil,
		"AGE":        int64(31),
		"skipped":    "x",
		"created_at": now,
	}

	got, err := Decode[account](row)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "user1", got.UserName)
	require.NotNil(t, got.Email)
	assert.Equal(t, "user1@gmail.com", *got.Email)
	assert.False(t, got.Nick.Valid)
	assert.Equal(t, int32(31), got.Age)
	assert.Empty(t, got.Skipped)
	require.NotNil(t, got.Audit)
	assert.Equal(t, now, got.CreatedAt)
}

func TestDecode_MapAndSingleColumn(t *testing.T) {
	m, err := Decode[map[string]any](adapter.Row{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, m)

	n, err := Decode[int](adapter.Row{"count": int64(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ts, err := Decode[time.Time](adapter.Row{"now": time.Unix(10, 0)})
	require.NoError(t, err)
	assert.Equal(t, time.Unix(10, 0), ts)

	_, err = Decode[int](adapter.Row{"a": 1, "b": 2})
	assert.Error(t, err)

	_, err = Decode[int](adapter.Row{"a": "text"})
	assert.Error(t, err)
}

func TestQueryAs(t *testing.T) {
	ctx := context.Background()
	fa := (&fakeAdapter{}).push(
		&adapter.Result{Rows: []adapter.Row{{"age": int64(1)}, {"age": int64(2)}}, Fields: []adapter.Field{{Name: "age"}}},
		&adapter.Result{},
		&adapter.Result{Rows: []adapter.Row{{"age": int64(5)}}, Fields: []adapter.Field{{Name: "age"}}},
	)
	p := NewPool(fa)

	ages, err := QueryAs[int](ctx, p, "SELECT age FROM users")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ages)

	_, ok, err := QueryFirstAs[account](ctx, p, "SELECT * FROM users")
	require.NoError(t, err)
	assert.False(t, ok)

	age, ok, err := ScalarAs[float64](ctx, p, "SELECT age FROM users")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5.0, age)
}
