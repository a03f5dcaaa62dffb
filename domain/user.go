package domain

// User account types. Officials are staff who can sign in; customers and
// suppliers only appear as parties on transactions.
const (
	UserTypeOfficial = 1
	UserTypeCustomer = 2
	UserTypeSupplier = 3
)

type User struct {
	ID        int64  `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Username  string `db:"username" json:"username"`
	Email     string `db:"email" json:"email,omitempty"`
	Password  string `db:"password" json:"password,omitempty"`
	Type      int    `db:"type" json:"type"`
	CreatedAt string `db:"created_at" json:"created_at,omitempty"`
}

type Role struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Permission struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
