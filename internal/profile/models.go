package profile

import "time"

type Profile struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone,omitempty"`
	AvatarURL           string    `json:"avatar_url,omitempty"`
	CompletedWalksCount int       `json:"completed_walks_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type UpdateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type AvatarRequest struct {
	AvatarURL string `json:"avatar_url"`
}
