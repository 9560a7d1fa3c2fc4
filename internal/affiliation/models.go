package affiliation

import "time"

const CodeTypeAffiliation = "affiliation"

type Affiliation struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AdminID      string    `json:"admin_id"`
	IsActive     bool      `json:"is_active"`
	AffiliatedAt time.Time `json:"affiliated_at"`
}

type Code struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CodeType  string    `json:"code_type"`
	AdminID   string    `json:"admin_id"`
	IsActive  bool      `json:"is_active"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ScanResult reports whether the scan created a link or found one
// already in place; a repeat scan is a no-op success.
type ScanResult struct {
	Affiliation   Affiliation `json:"affiliation"`
	AlreadyLinked bool        `json:"already_linked"`
}

// Client is an affiliated dog owner as shown on the walker's roster.
type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	AffiliatedAt time.Time `json:"affiliated_at"`
}
