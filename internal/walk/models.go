package walk

import "time"

const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	CodeTypeWalk = "walk"
)

type Walk struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"client_id"`
	WalkerID  string     `json:"walker_id,omitempty"`
	DogName   string     `json:"dog_name"`
	Status    string     `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Location struct {
	ID        string    `json:"id"`
	WalkID    string    `json:"walk_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

type Code struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CodeType  string    `json:"code_type"`
	WalkID    string    `json:"walk_id"`
	IsActive  bool      `json:"is_active"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateRequest struct {
	DogName string `json:"dog_name"`
	Notes   string `json:"notes"`
}

// GroupWalkRequest starts a walker-led walk and picks who is told
// about it: the whole roster, one group, or a hand-picked set.
type GroupWalkRequest struct {
	DogName   string   `json:"dog_name"`
	Notes     string   `json:"notes"`
	Audience  string   `json:"audience"`
	GroupID   string   `json:"group_id"`
	ClientIDs []string `json:"client_ids"`
}
