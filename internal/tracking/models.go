package tracking

import "time"

// AdminLocation is the walker's single live position row, upserted in
// place on every tick. At most one row per walker exists.
type AdminLocation struct {
	ID        string    `json:"id"`
	AdminID   string    `json:"admin_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	IsActive  bool      `json:"is_active"`
	Timestamp time.Time `json:"timestamp"`
}

type PublishRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

const (
	AudienceAll    = "all"
	AudienceGroup  = "group"
	AudienceManual = "manual"
)

// BroadcastRequest selects who is told that the walker started sharing
// location: the whole roster, one group, or a hand-picked set.
type BroadcastRequest struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Audience  string   `json:"audience"`
	GroupID   string   `json:"group_id"`
	ClientIDs []string `json:"client_ids"`
}
