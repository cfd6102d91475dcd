package models

// User is a demo account. Password holds the bcrypt hash, never the
// plaintext; the JSON name matches the persisted users collection.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewUser is the store input for a user.
type NewUser struct {
	Username     string
	PasswordHash string
}
