package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"slices"
)

//go:embed migrations/*.sql
var schemaFiles embed.FS

const migrationTableDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    VARCHAR(255) PRIMARY KEY,
	applied_at TIMESTAMPTZ DEFAULT NOW()
)`

type schemaStep struct {
	version string
	ddl     string
}

// schemaSteps lists the embedded schema files in lexical order.
func schemaSteps() ([]schemaStep, error) {
	names, err := fs.Glob(schemaFiles, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing schema files: %w", err)
	}
	slices.Sort(names)

	steps := make([]schemaStep, 0, len(names))
	for _, name := range names {
		body, err := schemaFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading schema file %s: %w", name, err)
		}
		steps = append(steps, schemaStep{version: path.Base(name), ddl: string(body)})
	}
	return steps, nil
}

// Migrate brings the descriptor schema up to date. Each step runs in its own
// transaction together with its schema_migrations row.
func (p *Pool) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, migrationTableDDL); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	done, err := p.MigrationsApplied(ctx)
	if err != nil {
		return err
	}
	steps, err := schemaSteps()
	if err != nil {
		return err
	}

	for _, step := range steps {
		if slices.Contains(done, step.version) {
			continue
		}
		if err := p.applyStep(ctx, step); err != nil {
			return err
		}
		log.Printf("postgres: descriptor schema at %s", step.version)
	}
	return nil
}

func (p *Pool) applyStep(ctx context.Context, step schemaStep) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("schema step %s: %w", step.version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, step.ddl); err != nil {
		return fmt.Errorf("schema step %s: %w", step.version, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, step.version); err != nil {
		return fmt.Errorf("recording schema step %s: %w", step.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema step %s: %w", step.version, err)
	}
	return nil
}

// MigrationsApplied returns the recorded schema versions, oldest first.
func (p *Pool) MigrationsApplied(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("listing schema versions: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning schema version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
