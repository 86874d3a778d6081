package db

import "time"

const StatusPending = "pending"

// Reservation is the persisted record. Only Status may change after creation.
type Reservation struct {
	ID        string    `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Email     string    `json:"email" db:"email"`
	People    int       `json:"people" db:"people"`
	DateTime  time.Time `json:"datetime" db:"datetime"`
	Notes     string    `json:"notes" db:"notes"`
	Status    string    `json:"status" db:"status"`
}
