package model

// Limits inherited from the wire format: usernames and passwords are
// rejected when longer than this.
const (
	MaxUsernameLen = 32
	MaxPasswordLen = 32
)

// User is a registered account. Created on signup, persisted immediately,
// never mutated or deleted afterwards.
type User struct {
	Username     string
	PasswordHash string // bcrypt hash, never the plaintext password
}
