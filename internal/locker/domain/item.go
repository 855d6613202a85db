package domain

import "time"

// Item is a private resource owned by exactly one user.
type Item struct {
	ID          int64
	Title       string
	Description *string
	OwnerID     int64
	CreatedAt   time.Time
}
