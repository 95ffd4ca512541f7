package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/TechXTT/dbkit"
	"github.com/TechXTT/dbkit/pkg/config"
	"github.com/TechXTT/dbkit/pkg/plugin"
)

type User struct {
	ID        uuid.UUID `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const createUsers = `CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name  TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// 1) Load the connection settings (DATABASE_URL, PG* variables or dbkit.yaml)
	cfg, err := config.Load(os.Getenv("DBKIT_CONFIG"))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	pool, err := dbkit.NewPoolFromConfig(ctx, cfg,
		dbkit.WithLogger(logger),
		dbkit.WithHooks(
			plugin.NewLogging(logger),
			plugin.NewMetrics("example", prometheus.DefaultRegisterer),
			plugin.NewTracing(otel.GetTracerProvider(), "postgresql"),
		),
	)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = pool.Close(ctx) }()

	// 2) Make sure the table exists
	if _, err := pool.Execute(ctx, createUsers); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	// 3) Create a new user from a struct
	now := time.Now().UTC()
	alice := User{
		ID:        uuid.New(),
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "alice@example.com",
		Password:  "hunter2",
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := pool.InsertReturning(ctx, "users", alice, "id")
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	fmt.Printf("✅ Created user %v\n", id)

	// 4) Query it back
	got, ok, err := dbkit.QueryFirstAs[User](ctx, pool, "SELECT * FROM users WHERE email = $1", alice.Email)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return fmt.Errorf("fetch user: %s not found", alice.Email)
	}
	fmt.Printf("✅ Fetched user: %s %s %s (created %s)\n",
		got.ID, got.FirstName, got.LastName, got.CreatedAt.Format(time.RFC3339))

	// 5) Change the email and clean up
	alice.Email = "alice@smith.dev"
	alice.UpdatedAt = time.Now().UTC()
	if _, err := pool.Update(ctx, "users", alice, "id", "created_at"); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := pool.Delete(ctx, "users", "id", alice.ID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	fmt.Printf("✅ Deleted %d user(s)\n", n)
	return nil
}
