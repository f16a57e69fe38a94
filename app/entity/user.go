package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Verified     bool
	Super        bool
	CreatedAt    time.Time
	UpdatedAt    sql.NullTime
}
