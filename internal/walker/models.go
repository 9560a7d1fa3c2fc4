package walker

import "time"

type WalkerProfile struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	IsAvailable     bool      `json:"is_available"`
	ServiceRadiusKm float64   `json:"service_radius"`
	HourlyRate      float64   `json:"hourly_rate"`
	Specialties     []string  `json:"specialties"`
	Bio             string    `json:"bio,omitempty"`
	City            string    `json:"city,omitempty"`
	State           string    `json:"state,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Listing is a walker profile joined with the public profile bits shown
// on the discovery page, plus the distance to the searching client when
// the walker has an active live location.
type Listing struct {
	WalkerProfile
	Name                string   `json:"name"`
	AvatarURL           string   `json:"avatar_url,omitempty"`
	CompletedWalksCount int      `json:"completed_walks_count"`
	DistanceKm          *float64 `json:"distance_km,omitempty"`
}

type Plan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	MaxClients  int      `json:"max_clients"`
	Features    []string `json:"features"`
}

// PlanStatus mirrors what the walker dashboard badge needs: the
// effective plan plus the current roster usage.
type PlanStatus struct {
	Plan           Plan `json:"plan"`
	ClientCount    int  `json:"client_count"`
	ClientLimit    int  `json:"client_limit"`
	RemainingSlots int  `json:"remaining_slots"`
	AtLimit        bool `json:"at_limit"`
}

// FreePlan is the implicit plan for walkers without a subscription row.
var FreePlan = Plan{
	ID:          "default",
	Name:        "free",
	DisplayName: "Gratuito",
	MaxClients:  6,
	Features:    []string{"Hasta 6 clientes", "Tracking básico", "1 grupo"},
}
