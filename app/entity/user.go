package entity

// User is the authenticated caller. A nil *User means anonymous.
type User struct {
	ID          uint64
	Email       string
	DisplayName string
	IsAdmin     bool
}
