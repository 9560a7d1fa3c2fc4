package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DeLaConcha232/doggy-walking/internal/db"
	"github.com/DeLaConcha232/doggy-walking/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotAffiliated = errors.New("not affiliated with this walker")
	ErrNotTracking   = errors.New("walker has no active location")
)

type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(db db.Querier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

// Publish upserts the walker's live position and fans it out. The
// single atomic statement means concurrent ticks from two devices
// cannot leave two active rows. A failed write is simply lost until
// the next interval tick.
func (s *Service) Publish(ctx context.Context, adminID string, req PublishRequest) (AdminLocation, error) {
	loc := AdminLocation{
		AdminID:   adminID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		IsActive:  true,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO admin_locations (id, admin_id, latitude, longitude, is_active, timestamp)
		VALUES ($1,$2,$3,$4,true,now())
		ON CONFLICT (admin_id) DO UPDATE
		SET latitude=EXCLUDED.latitude, longitude=EXCLUDED.longitude,
		    is_active=true, timestamp=now()
		RETURNING id, timestamp
	`, uuid.NewString(), adminID, req.Latitude, req.Longitude)
	if err := row.Scan(&loc.ID, &loc.Timestamp); err != nil {
		return AdminLocation{}, err
	}

	if s.hub != nil {
		payload, _ := json.Marshal(loc)
		s.hub.Broadcast(stream.WalkerTopic(adminID), payload)
	}
	return loc, nil
}

// Start publishes the first fix and notifies the chosen audience that
// the walker is now sharing location. Audience defaults to the whole
// roster.
func (s *Service) Start(ctx context.Context, adminID string, req BroadcastRequest) (AdminLocation, []string, error) {
	loc, err := s.Publish(ctx, adminID, PublishRequest{Latitude: req.Latitude, Longitude: req.Longitude})
	if err != nil {
		return AdminLocation{}, nil, err
	}

	recipients, err := s.resolveAudience(ctx, adminID, req)
	if err != nil {
		return AdminLocation{}, nil, err
	}

	if s.hub != nil {
		payload, _ := json.Marshal(map[string]string{"event": "walker_started", "walker_id": adminID})
		for _, clientID := range recipients {
			s.hub.Broadcast(stream.UserTopic(clientID), payload)
		}
	}
	return loc, recipients, nil
}

// Stop retires the live position. Afterwards no active row exists for
// the walker.
func (s *Service) Stop(ctx context.Context, adminID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE admin_locations SET is_active=false, timestamp=now()
		WHERE admin_id=$1 AND is_active
	`, adminID)
	if err != nil {
		return err
	}

	if s.hub != nil {
		payload, _ := json.Marshal(map[string]string{"event": "walker_stopped", "walker_id": adminID})
		s.hub.Broadcast(stream.WalkerTopic(adminID), payload)
	}
	return nil
}

// Current returns the walker's active position for an affiliated
// viewer. Walkers may read their own row, which the dashboard uses to
// restore tracking state after a reload.
func (s *Service) Current(ctx context.Context, viewerID, adminID string) (AdminLocation, error) {
	if viewerID != adminID {
		var ok bool
		err := s.db.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM affiliations
				WHERE user_id=$1 AND admin_id=$2 AND is_active
			)
		`, viewerID, adminID).Scan(&ok)
		if err != nil {
			return AdminLocation{}, err
		}
		if !ok {
			return AdminLocation{}, ErrNotAffiliated
		}
	}

	var loc AdminLocation
	err := s.db.QueryRow(ctx, `
		SELECT id, admin_id, latitude, longitude, is_active, timestamp
		FROM admin_locations
		WHERE admin_id=$1 AND is_active
	`, adminID).Scan(&loc.ID, &loc.AdminID, &loc.Latitude, &loc.Longitude, &loc.IsActive, &loc.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdminLocation{}, ErrNotTracking
		}
		return AdminLocation{}, err
	}
	return loc, nil
}

func (s *Service) resolveAudience(ctx context.Context, adminID string, req BroadcastRequest) ([]string, error) {
	switch req.Audience {
	case AudienceManual:
		return req.ClientIDs, nil
	case AudienceGroup:
		rows, err := s.db.Query(ctx, `
			SELECT m.user_id
			FROM group_members m
			JOIN walker_groups g ON g.id = m.group_id
			WHERE m.group_id=$1 AND g.admin_id=$2 AND g.is_active
		`, req.GroupID, adminID)
		if err != nil {
			return nil, err
		}
		return collectIDs(rows)
	default:
		rows, err := s.db.Query(ctx, `
			SELECT user_id FROM affiliations WHERE admin_id=$1 AND is_active
		`, adminID)
		if err != nil {
			return nil, err
		}
		return collectIDs(rows)
	}
}

func collectIDs(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Interval is the client-facing persistence cadence: devices re-read
// geolocation and publish every this many minutes while tracking.
func Interval(minutes int) time.Duration {
	if minutes <= 0 {
		minutes = 10
	}
	return time.Duration(minutes) * time.Minute
}
