// Package sqlite opens embedded SQLite databases (modernc.org/sqlite, no cgo)
// and applies schema migrations from an fs.FS.
//
//	db, err := sqlite.NewDB(ctx, "data/notes.db")
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	if _, err := sqlite.ApplyMigrations(db, migrations, "migrations/sqlite"); err != nil {
//		return err
//	}
//
// NewInMemoryDB is meant for tests. IsUniqueViolation lets repositories turn
// constraint failures into domain conflicts.
package sqlite
