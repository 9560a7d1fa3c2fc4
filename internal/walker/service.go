package walker

import (
	"context"
	"errors"

	"github.com/DeLaConcha232/doggy-walking/internal/db"
	"github.com/DeLaConcha232/doggy-walking/internal/shared/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// UpsertProfile creates or replaces the walker's public listing, keyed
// on user_id.
func (s *Service) UpsertProfile(ctx context.Context, input WalkerProfile) (WalkerProfile, error) {
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO walker_profiles (id, user_id, is_available, service_radius, hourly_rate, specialties, bio, city, state)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (user_id) DO UPDATE
		SET is_available=EXCLUDED.is_available, service_radius=EXCLUDED.service_radius,
		    hourly_rate=EXCLUDED.hourly_rate, specialties=EXCLUDED.specialties,
		    bio=EXCLUDED.bio, city=EXCLUDED.city, state=EXCLUDED.state, updated_at=now()
		RETURNING id, created_at, updated_at
	`, input.ID, input.UserID, input.IsAvailable, input.ServiceRadiusKm, input.HourlyRate,
		input.Specialties, input.Bio, input.City, input.State)
	if err := row.Scan(&input.ID, &input.CreatedAt, &input.UpdatedAt); err != nil {
		return WalkerProfile{}, err
	}
	return input, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (WalkerProfile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, is_available, COALESCE(service_radius,0), COALESCE(hourly_rate,0),
		       COALESCE(specialties,'{}'), COALESCE(bio,''), COALESCE(city,''), COALESCE(state,''),
		       created_at, updated_at
		FROM walker_profiles WHERE user_id=$1
	`, userID)
	var wp WalkerProfile
	if err := row.Scan(&wp.ID, &wp.UserID, &wp.IsAvailable, &wp.ServiceRadiusKm, &wp.HourlyRate,
		&wp.Specialties, &wp.Bio, &wp.City, &wp.State, &wp.CreatedAt, &wp.UpdatedAt); err != nil {
		return WalkerProfile{}, err
	}
	return wp, nil
}

// Discover lists available walkers joined with their public profile.
// With a client position, walkers sharing an active live location are
// filtered against their own service radius and annotated with the
// distance; walkers without a live location stay listed undistanced.
func (s *Service) Discover(ctx context.Context, city string, lat, lng float64) ([]Listing, error) {
	rows, err := s.db.Query(ctx, `
		SELECT w.id, w.user_id, w.is_available, COALESCE(w.service_radius,0), COALESCE(w.hourly_rate,0),
		       COALESCE(w.specialties,'{}'), COALESCE(w.bio,''), COALESCE(w.city,''), COALESCE(w.state,''),
		       w.created_at, w.updated_at,
		       p.name, COALESCE(p.avatar_url,''), COALESCE(p.completed_walks_count,0),
		       l.latitude, l.longitude
		FROM walker_profiles w
		JOIN profiles p ON p.id = w.user_id
		LEFT JOIN admin_locations l ON l.admin_id = w.user_id AND l.is_active
		WHERE w.is_available AND ($1 = '' OR w.city ILIKE $1)
		ORDER BY p.completed_walks_count DESC
	`, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var item Listing
		var walkerLat, walkerLng *float64
		if err := rows.Scan(&item.ID, &item.UserID, &item.IsAvailable, &item.ServiceRadiusKm, &item.HourlyRate,
			&item.Specialties, &item.Bio, &item.City, &item.State, &item.CreatedAt, &item.UpdatedAt,
			&item.Name, &item.AvatarURL, &item.CompletedWalksCount, &walkerLat, &walkerLng); err != nil {
			return nil, err
		}

		if (lat != 0 || lng != 0) && walkerLat != nil && walkerLng != nil {
			d := geo.HaversineKm(lat, lng, *walkerLat, *walkerLng)
			if item.ServiceRadiusKm > 0 && d > item.ServiceRadiusKm {
				continue
			}
			item.DistanceKm = &d
		}
		listings = append(listings, item)
	}
	return listings, rows.Err()
}

// PlanFor resolves the walker's active subscription. No subscription
// row means the implicit free plan; any other error surfaces so a DB
// outage never masquerades as a downgrade.
func (s *Service) PlanFor(ctx context.Context, walkerID string) (Plan, error) {
	row := s.db.QueryRow(ctx, `
		SELECT p.id, p.name, p.display_name, p.max_clients, COALESCE(p.features,'{}')
		FROM walker_subscriptions s
		JOIN subscription_plans p ON p.id = s.plan_id
		WHERE s.walker_id=$1 AND s.is_active
	`, walkerID)
	var plan Plan
	if err := row.Scan(&plan.ID, &plan.Name, &plan.DisplayName, &plan.MaxClients, &plan.Features); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FreePlan, nil
		}
		return Plan{}, err
	}
	return plan, nil
}

func (s *Service) PlanStatusFor(ctx context.Context, walkerID string) (PlanStatus, error) {
	plan, err := s.PlanFor(ctx, walkerID)
	if err != nil {
		return PlanStatus{}, err
	}

	var count int
	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM affiliations WHERE admin_id=$1 AND is_active
	`, walkerID).Scan(&count)
	if err != nil {
		return PlanStatus{}, err
	}

	remaining := plan.MaxClients - count
	if remaining < 0 {
		remaining = 0
	}
	return PlanStatus{
		Plan:           plan,
		ClientCount:    count,
		ClientLimit:    plan.MaxClients,
		RemainingSlots: remaining,
		AtLimit:        count >= plan.MaxClients,
	}, nil
}

// ClientLimit implements affiliation.ClientLimiter: the plan's client
// ceiling and the walker's current active roster size.
func (s *Service) ClientLimit(ctx context.Context, walkerID string) (int, int, error) {
	status, err := s.PlanStatusFor(ctx, walkerID)
	if err != nil {
		return 0, 0, err
	}
	return status.ClientLimit, status.ClientCount, nil
}

func (s *Service) Plans(ctx context.Context) ([]Plan, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, display_name, max_clients, COALESCE(features,'{}')
		FROM subscription_plans
		ORDER BY max_clients
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.DisplayName, &p.MaxClients, &p.Features); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// Subscribe switches the walker's active plan; the old subscription is
// deactivated and the new one inserted in the same transaction.
func (s *Service) Subscribe(ctx context.Context, walkerID, planID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE walker_subscriptions SET is_active=false WHERE walker_id=$1 AND is_active
	`, walkerID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO walker_subscriptions (id, walker_id, plan_id, is_active)
		VALUES ($1,$2,$3,true)
	`, uuid.NewString(), walkerID, planID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
