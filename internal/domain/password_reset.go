package domain

import "time"

// ResetStatusCompleted is the only status a reset event is written with.
const ResetStatusCompleted = "completed"

// PasswordReset is an audit entry in password_resets.log.
type PasswordReset struct {
	ResetID   string    `json:"reset_id"`
	Username  string    `json:"username"`
	ResetDate time.Time `json:"reset_date"`
	Status    string    `json:"status"`
}
