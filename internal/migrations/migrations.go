package migrations

import (
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required for the POS backend. Statements are
// written in the PostgreSQL dialect and rewritten for SQLite when the pool was
// opened with the sqlite driver.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL UNIQUE,
			email TEXT,
			password TEXT NOT NULL DEFAULT '',
			type INTEGER NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS roles (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS permissions (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS role_permission (
			role_id INTEGER NOT NULL REFERENCES roles(id),
			permission_id INTEGER NOT NULL REFERENCES permissions(id),
			PRIMARY KEY (role_id, permission_id)
		);`,
		`CREATE TABLE IF NOT EXISTS role_user (
			role_id INTEGER NOT NULL REFERENCES roles(id),
			user_id INTEGER NOT NULL REFERENCES users(id),
			PRIMARY KEY (role_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS brands (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS product_categories (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS product_models (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS products (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			sku TEXT NOT NULL UNIQUE,
			brand_id INTEGER REFERENCES brands(id),
			product_category_id INTEGER REFERENCES product_categories(id),
			product_model_id INTEGER REFERENCES product_models(id),
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS purchase_transactions (
			id SERIAL PRIMARY KEY,
			status TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			transaction_date DATE NOT NULL,
			supplier_id INTEGER NOT NULL REFERENCES users(id),
			finalized_by INTEGER NOT NULL REFERENCES users(id),
			finalized_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			invoice_no TEXT UNIQUE,
			amount DOUBLE PRECISION NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS purchase_variations (
			id SERIAL PRIMARY KEY,
			purchase_transaction_id INTEGER NOT NULL REFERENCES purchase_transactions(id),
			product_id INTEGER NOT NULL REFERENCES products(id),
			purchase_price DOUBLE PRECISION NOT NULL,
			quantity_purchased INTEGER NOT NULL,
			quantity_available INTEGER NOT NULL CHECK (quantity_available >= 0),
			quantity_sold INTEGER NOT NULL DEFAULT 0,
			serial TEXT UNIQUE,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS sale_transactions (
			id SERIAL PRIMARY KEY,
			status TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			transaction_date DATE NOT NULL,
			customer_id INTEGER NOT NULL REFERENCES users(id),
			finalized_by INTEGER NOT NULL REFERENCES users(id),
			finalized_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			invoice_no TEXT UNIQUE,
			amount DOUBLE PRECISION NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS sale_variations (
			id SERIAL PRIMARY KEY,
			sale_transaction_id INTEGER NOT NULL REFERENCES sale_transactions(id),
			product_id INTEGER NOT NULL REFERENCES products(id),
			purchase_variation_id INTEGER NOT NULL REFERENCES purchase_variations(id),
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			return_quantity INTEGER NOT NULL DEFAULT 0 CHECK (return_quantity >= 0),
			selling_price DOUBLE PRECISION NOT NULL,
			purchase_price DOUBLE PRECISION NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sale_return_transactions (
			id SERIAL PRIMARY KEY,
			sale_transaction_id INTEGER NOT NULL REFERENCES sale_transactions(id),
			amount DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, stmt := range schema {
		if db.DriverName() == "sqlite" {
			stmt = toSQLite(stmt)
		}
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}

var sqliteRewrites = strings.NewReplacer(
	"SERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT",
	"TIMESTAMPTZ", "TEXT",
	"DOUBLE PRECISION", "REAL",
	" DATE ", " TEXT ",
)

func toSQLite(stmt string) string {
	return sqliteRewrites.Replace(stmt)
}
