//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"clubid/migrations"
	id "clubid/pkg/domain"
)

// PostgresContainer wraps a testcontainers Postgres instance with the schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts Postgres and applies every *.up.sql migration.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("clubid_test"),
		postgres.WithUsername("clubid"),
		postgres.WithPassword("clubid_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	db.SetMaxOpenConns(60)

	pc := &PostgresContainer{Container: container, DSN: dsn, DB: db}
	if err := migrations.Apply(ctx, db); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to run migrations: %v", err)
	}
	// The Manager shares this container across suites; Ryuk reaps it at exit.
	return pc
}

// TruncateTables clears the given tables with CASCADE.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// TruncateAll resets every table of the schema.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	return p.TruncateTables(ctx,
		"outbox",
		"audit_entries",
		"integration_requests",
		"role_requests",
		"athlete_profiles",
		"entity_memberships",
		"entities",
		"identity_code_sequences",
		"person_roles",
		"persons",
	)
}

// CreateTestPerson inserts a person without roles.
func (p *PostgresContainer) CreateTestPerson(ctx context.Context, t testing.TB, jurisdiction *string) id.PersonID {
	t.Helper()
	personID := id.NewPersonID()
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO persons (id, display_name, jurisdiction, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`, uuid.UUID(personID), "Test Person "+uuid.NewString()[:8], jurisdiction)
	if err != nil {
		t.Fatalf("CreateTestPerson: %v", err)
	}
	return personID
}

// CreateTestEntity inserts an entity administered by admin.
func (p *PostgresContainer) CreateTestEntity(ctx context.Context, t testing.TB, kind id.EntityKind, admin id.PersonID) id.EntityRef {
	t.Helper()
	ref := id.EntityRef{Kind: kind, ID: id.NewEntityID()}
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO entities (kind, id, name, admin_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, string(kind), uuid.UUID(ref.ID), "Test "+string(kind), uuid.UUID(admin))
	if err != nil {
		t.Fatalf("CreateTestEntity: %v", err)
	}
	return ref
}
