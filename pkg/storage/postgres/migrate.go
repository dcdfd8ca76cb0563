package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"phishvault/pkg/storage"

	"github.com/pressly/goose/v3"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivermigrate"
)

// SchemaVersion returns the goose version of the schema, 0 when nothing was
// applied yet.
func (p *PgSQL) SchemaVersion(ctx context.Context) (int64, error) {
	db, ok := p.DB.(*sql.DB)
	if !ok {
		return 0, fmt.Errorf("could not read schema version: %w", storage.ErrAlreadyInTx)
	}
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("could not set goose dialect: %w", err)
	}

	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("could not read schema version: %w", err)
	}

	return v, nil
}

// Migrate applies the goose migrations found under dir in migrations, then
// brings the river queue tables to their latest version.
func (p *PgSQL) Migrate(ctx context.Context, migrations fs.FS, dir string) error {
	db, ok := p.DB.(*sql.DB)
	if !ok {
		return fmt.Errorf("could not migrate: %w", storage.ErrAlreadyInTx)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("could not set goose dialect to postgres: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("could not migrate pgsql: %w", err)
	}

	migrator, err := rivermigrate.New(riverdatabasesql.New(db), nil)
	if err != nil {
		return fmt.Errorf("could not create river queue migrator: %w", err)
	}
	versions := migrator.AllVersions()
	latestVersion := versions[len(versions)-1].Version

	currentVersion := 0
	existing, err := migrator.ExistingVersions(ctx)
	if err != nil {
		return fmt.Errorf("could not get existing river queue migrations: %w", err)
	}
	if len(existing) > 0 {
		currentVersion = existing[len(existing)-1].Version
	}
	if latestVersion <= currentVersion {
		return nil
	}

	if _, err = migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{
		TargetVersion: latestVersion,
	}); err != nil {
		return fmt.Errorf("could not migrate river queue tables: %w", err)
	}

	return nil
}
