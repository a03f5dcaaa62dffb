package database

import (
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Connect opens the database using the given driver ("postgres" or "sqlite")
// and DSN. SQLite is limited to a single connection because the whole sale
// path runs inside transactions on one file.
func Connect(driver, dsn string) *sqlx.DB {
	var (
		db  *sqlx.DB
		err error
	)
	switch driver {
	case "sqlite":
		db, err = sqlx.Connect("sqlite", dsn)
		if err == nil {
			db.SetMaxOpenConns(1)
		}
	default:
		db, err = sqlx.Connect("pgx", dsn)
		if err == nil {
			db.SetMaxOpenConns(10)
		}
	}
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return db
}
