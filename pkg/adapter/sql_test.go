package adapter

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnsRows(t *testing.T) {
	cases := map[string]bool{
		"SELECT * FROM users":                                                  true,
		"  select 1":                                                           true,
		"(SELECT 1) UNION (SELECT 2)":                                          true,
		"WITH x AS (SELECT 1) SELECT * FROM x":                                 true,
		"INSERT INTO users(a) VALUES($1) RETURNING id":                         true,
		"INSERT INTO users(a) VALUES($1)":                                      false,
		"UPDATE users SET a = $2 WHERE id = $1":                                false,
		"DELETE FROM users WHERE id = $1":                                      false,
		"CREATE TABLE users(username VARCHAR(50))":                             false,
		"UPDATE users SET returning_customer = $2":                             false,
		"DELETE FROM users WHERE id = $1 returning email":                      true,
		"-- all users\nSELECT * FROM users":                                    true,
		"/* all users */ SELECT * FROM users":                                  true,
		"/* a */ -- b\n ( select 1 )":                                          true,
		"-- SELECT\nDELETE FROM users":                                         false,
		"INSERT INTO users(username, email) VALUES('x', 'returning customer')": false,
		"INSERT INTO users(a) VALUES('it''s returning')":                       false,
		`UPDATE "returning" SET a = 1`:                                         false,
		"UPDATE users SET a = 1 /* returning */ -- returning":                  false,
		"INSERT INTO f(body) VALUES($$ returning $$)":                          false,
		"INSERT INTO f(body) VALUES($tag$ returning $tag$) RETURNING id":       true,
		"INSERT INTO users(a) VALUES($1)\nRETURNING id":                        true,
		"":                                                                     false,
	}
	for q, want := range cases {
		assert.Equal(t, want, ReturnsRows(q), q)
	}
}

func TestSQLPool_QueryCollectsRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT username, email FROM users WHERE username = $1`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"username", "email"}).
			AddRow("u1", "e1").
			AddRow("u1", nil))

	a := NewSQLPool(db)
	res, err := a.Query(context.Background(), `SELECT username, email FROM users WHERE username = $1`, "u1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []Field{{Name: "username"}, {Name: "email"}}, res.Fields)
	assert.Equal(t, int64(2), res.RowCount)
	assert.Equal(t, []Row{
		{"username": "u1", "email": "e1"},
		{"username": "u1", "email": nil},
	}, res.Rows)

	v, ok := res.Scalar()
	assert.True(t, ok)
	assert.Equal(t, "u1", v)
}

func TestSQLPool_ExecReportsRowsAffected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users`)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	res, err := NewSQLPool(db).Query(context.Background(), `DELETE FROM users`)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowCount)
	assert.Empty(t, res.Rows)
	assert.NotNil(t, res.Rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLPool_ReturningGoesThroughQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	q := `INSERT INTO users(username) VALUES($1) RETURNING username`
	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("u1"))

	res, err := NewSQLPool(db).Query(context.Background(), q, "u1")
	require.NoError(t, err)
	v, ok := res.Scalar()
	require.True(t, ok)
	assert.Equal(t, "u1", v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLPool_ErrorsPassThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New(`column "ignore" of relation "users" does not exist`)
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(boom)

	_, err = NewSQLPool(db).Query(context.Background(), `INSERT INTO users(ignore) VALUES($1)`, "x")
	require.ErrorIs(t, err, boom)
}

func TestSQLPool_EndClosesDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectClose()
	a := NewSQLPool(db)
	require.NoError(t, a.Connect(context.Background()))
	require.NoError(t, a.End(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLConn_RequiresConnect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	a := NewSQLConn(db)
	_, err = a.Query(ctx, `SELECT 1`)
	require.ErrorIs(t, err, ErrNotConnected)

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	require.NoError(t, a.Connect(ctx))
	res, err := a.Query(ctx, `SELECT 1`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowCount)

	require.NoError(t, a.End(ctx))
	require.NoError(t, a.End(ctx))
	_, err = a.Query(ctx, `SELECT 1`)
	require.ErrorIs(t, err, ErrNotConnected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResult_EmptyHelpers(t *testing.T) {
	var nilRes *Result
	_, ok := nilRes.First()
	assert.False(t, ok)

	res := &Result{Rows: []Row{{"a": 1}}}
	_, ok = res.Scalar()
	assert.False(t, ok, "no field descriptors")

	res = &Result{Fields: []Field{{Name: "a"}}}
	_, ok = res.Scalar()
	assert.False(t, ok, "no rows")
}

func TestSQLPool_BytesBecomeStringsForTextColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("price").OfType("NUMERIC", []byte{}),
		sqlmock.NewColumn("avatar").OfType("BYTEA", []byte{}),
		sqlmock.NewColumn("note").OfType("", []byte{}),
	).AddRow([]byte("1.50"), []byte{0xff, 0x00}, []byte("raw"))
	mock.ExpectQuery(`SELECT price, avatar, note FROM items`).WillReturnRows(rows)

	res, err := NewSQLPool(db).Query(context.Background(), `SELECT price, avatar, note FROM items`)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []Field{
		{Name: "price", DataType: "NUMERIC"},
		{Name: "avatar", DataType: "BYTEA"},
		{Name: "note"},
	}, res.Fields)
	row, ok := res.First()
	require.True(t, ok)
	assert.Equal(t, "1.50", row["price"])
	assert.Equal(t, []byte{0xff, 0x00}, row["avatar"])
	assert.Equal(t, []byte("raw"), row["note"])
}

func TestSQLConnOpener_OwnsHandle(t *testing.T) {
	ctx := context.Background()
	var mocks []sqlmock.Sqlmock
	opens := 0
	a := NewSQLConnOpener(func() (*sql.DB, error) {
		db, mock, err := sqlmock.New()
		if err != nil {
			return nil, err
		}
		mock.ExpectClose()
		mocks = append(mocks, mock)
		opens++
		return db, nil
	})

	for i := 0; i < 2; i++ {
		require.NoError(t, a.Connect(ctx))
		require.NoError(t, a.End(ctx))
	}
	assert.Equal(t, 2, opens)
	for _, m := range mocks {
		assert.NoError(t, m.ExpectationsWereMet(), "every opened handle is closed")
	}

	_, err := a.Query(ctx, `SELECT 1`)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestSQLConnOpener_OpenFailure(t *testing.T) {
	boom := errors.New("bad dsn")
	a := NewSQLConnOpener(func() (*sql.DB, error) { return nil, boom })
	require.ErrorIs(t, a.Connect(context.Background()), boom)
	require.NoError(t, a.End(context.Background()))
}
