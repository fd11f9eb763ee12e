// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files are read from an fs.FS (usually an embed.FS compiled into
// the binary) and must be named {version}_{description}.sql, for example
// "0001_initial_schema.sql". Versions are numeric and must form a gapless
// sequence. Each file runs inside its own transaction and is recorded in the
// schema_migrations table so it is never applied twice.
//
// Example usage:
//
//	manager := migration.NewMigrationManager(
//		migration.NewFileScanner(migrationsFS),
//		migration.NewSQLiteExecutor(db),
//		"migrations",
//		logger,
//	)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
