package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Profile is the model for the 'profiles' table.
// Nullable columns use pointers so they marshal cleanly.
type Profile struct {
	ID           int64  `json:"id" db:"id"`
	FullName     string `json:"fullName" db:"full_name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"` // user | admin
	Plan         string `json:"plan" db:"plan"` // free | starter | builder | pro | enterprise

	CreditBalance float64 `json:"creditBalance" db:"credit_balance"`
	Status        string  `json:"status" db:"status"` // active | deleted

	SubscriptionStatus    string     `json:"subscriptionStatus" db:"subscription_status"` // none | active | canceled
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt,omitempty" db:"subscription_expires_at"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Password wraps bcrypt hashing for the registration and login handlers.
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
