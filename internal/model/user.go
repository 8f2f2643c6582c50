package model

// User represents a registered account as stored in the `users` table.
// Email is unique without regard to case.  PasswordHash holds a bcrypt
// hash and is never serialized.
type User struct {
	ID           uint64 `json:"id"`         // users.id
	FirstName    string `json:"first_name"` // users.first_name
	LastName     string `json:"last_name"`  // users.last_name
	Email        string `json:"email"`      // users.email
	PasswordHash string `json:"-"`          // users.password
}

// FullName joins first and last name for display.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
