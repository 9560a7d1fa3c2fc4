package request

import "time"

const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type WalkRequest struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"client_id"`
	WalkerID        string    `json:"walker_id"`
	RequestedDate   string    `json:"requested_date"`
	RequestedTime   string    `json:"requested_time"`
	DurationMinutes int       `json:"duration_minutes"`
	NumberOfDogs    int       `json:"number_of_dogs"`
	SpecialNotes    string    `json:"special_notes,omitempty"`
	Status          string    `json:"status"`
	ResponseNotes   string    `json:"response_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Counterparty profile bits for the list views.
	CounterpartName   string `json:"counterpart_name,omitempty"`
	CounterpartAvatar string `json:"counterpart_avatar,omitempty"`
	CounterpartPhone  string `json:"counterpart_phone,omitempty"`
}

type CreateRequest struct {
	WalkerID        string `json:"walker_id"`
	RequestedDate   string `json:"requested_date"`
	RequestedTime   string `json:"requested_time"`
	DurationMinutes int    `json:"duration_minutes"`
	NumberOfDogs    int    `json:"number_of_dogs"`
	SpecialNotes    string `json:"special_notes"`
}

type RespondRequest struct {
	Accept        bool   `json:"accept"`
	ResponseNotes string `json:"response_notes"`
}
