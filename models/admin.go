package models

import "time"

// Admin представляет администратора клуба, единственную роль с правом
// управлять турнирами.
type Admin struct {
	ID           string    `json:"id" db:"id"`
	ClubID       string    `json:"club_id" db:"club_id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
