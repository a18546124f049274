// Package database provides the SQLite store behind the OSCLeash audit log.
//
// Open creates the database file and its directory on first run and
// configures the connection for a single writer. Migrate applies the
// embedded schema migrations:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql and are
// applied in version order, each in its own transaction. Applied versions
// are recorded in schema_migrations.
package database
