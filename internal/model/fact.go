package model

import "time"

// Fact 場次的上層實體，happenings_count 為 counter cache
type Fact struct {
	ID              int       `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	HappeningsCount int       `json:"happenings_count" db:"happenings_count"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
