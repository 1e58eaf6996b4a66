package domain

import "time"

// User is an identity stored in users.log. Username is the only key.
type User struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}
