package models

import "time"

// User models a Popcorn account held by the local or in-memory credential
// store. Accounts managed by Cognito never pass through this struct.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Confirmed        bool      `json:"confirmed"`
	ConfirmationCode string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
