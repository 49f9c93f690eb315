package domain

import "time"

// Job es una oferta publicada por una cuenta hr.
type Job struct {
	ID          string    `json:"id"`
	PostedBy    string    `json:"posted_by"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Salary      string    `json:"salary,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
