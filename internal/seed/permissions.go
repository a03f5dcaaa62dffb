package seed

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/Tousif070/Point-Of-Sales-Backend/domain"
)

// Catalog of capabilities the API checks before running any handler.
var permissionNames = []string{
	"user.index-official",
	"user.index-customer",
	"user.index-supplier",
	"user.register-official",
	"user.register-customer",
	"user.register-supplier",
	"user.assign-role",
	"role.index",
	"role.store",
	"role.assign-permission",
	"purchase.index",
	"purchase.store",
	"sale.index",
	"sale.store",
}

// Bootstrap seeds the permission catalog, a Super Admin role holding every
// permission, and the initial admin account. Safe to run repeatedly.
func Bootstrap(db *sqlx.DB, adminPassword string) {
	tx, err := db.Beginx()
	if err != nil {
		log.Printf("unable to start seed transaction: %v", err)
		return
	}
	defer tx.Rollback()

	for _, name := range permissionNames {
		if _, err := tx.Exec(`INSERT INTO permissions (name) VALUES ($1) ON CONFLICT DO NOTHING`, name); err != nil {
			log.Printf("unable to seed permission %s: %v", name, err)
			return
		}
	}

	if _, err := tx.Exec(`INSERT INTO roles (name) VALUES ($1) ON CONFLICT DO NOTHING`, "Super Admin"); err != nil {
		log.Printf("unable to seed role: %v", err)
		return
	}
	var roleID int64
	if err := tx.Get(&roleID, `SELECT id FROM roles WHERE name = $1`, "Super Admin"); err != nil {
		log.Printf("unable to load seeded role: %v", err)
		return
	}

	if _, err := tx.Exec(`
		INSERT INTO role_permission (role_id, permission_id)
		SELECT $1, id FROM permissions WHERE true
		ON CONFLICT DO NOTHING`, roleID); err != nil {
		log.Printf("unable to grant permissions to role: %v", err)
		return
	}

	var adminExists bool
	if err := tx.Get(&adminExists, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, "admin"); err != nil {
		log.Printf("unable to check admin account: %v", err)
		return
	}
	if !adminExists {
		hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("unable to hash admin password: %v", err)
			return
		}
		var adminID int64
		err = tx.QueryRowx(`
			INSERT INTO users (first_name, last_name, username, password, type)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			"System", "Admin", "admin", string(hashed), domain.UserTypeOfficial).Scan(&adminID)
		if err != nil {
			log.Printf("unable to seed admin account: %v", err)
			return
		}
		if _, err := tx.Exec(`INSERT INTO role_user (role_id, user_id) VALUES ($1, $2)`, roleID, adminID); err != nil {
			log.Printf("unable to assign admin role: %v", err)
			return
		}
		log.Printf("seeded admin account with Super Admin role")
	}

	if err := tx.Commit(); err != nil {
		log.Printf("unable to commit seed: %v", err)
	}
}
