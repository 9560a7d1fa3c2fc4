package walk

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DeLaConcha232/doggy-walking/internal/affiliation"
	"github.com/DeLaConcha232/doggy-walking/internal/db"
	"github.com/DeLaConcha232/doggy-walking/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrCodeInvalid       = errors.New("walk code invalid or expired")
	ErrInvalidTransition = errors.New("walk status transition not allowed")
	ErrNotParticipant    = errors.New("walk does not belong to user")
)

const codeTTL = 24 * time.Hour

// validNext guards status writes. Updates outside this table are
// rejected; terminal states never move again.
var validNext = map[string]map[string]bool{
	StatusPending: {StatusActive: true, StatusCancelled: true},
	StatusActive:  {StatusCompleted: true, StatusCancelled: true},
}

type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(db db.Querier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

// CreateWithCode registers a pending walk for the client and mints its
// walk-type QR code in one transaction.
func (s *Service) CreateWithCode(ctx context.Context, clientID string, req CreateRequest) (Walk, Code, error) {
	if req.DogName == "" {
		return Walk{}, Code{}, errors.New("dog_name required")
	}

	w := Walk{
		ID:       uuid.NewString(),
		ClientID: clientID,
		DogName:  req.DogName,
		Status:   StatusPending,
		Notes:    req.Notes,
	}
	code := Code{
		ID:        uuid.NewString(),
		Code:      affiliation.NewCode(),
		CodeType:  CodeTypeWalk,
		WalkID:    w.ID,
		IsActive:  true,
		ExpiresAt: time.Now().Add(codeTTL),
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Walk{}, Code{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO walks (id, client_id, dog_name, status, notes)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at
	`, w.ID, w.ClientID, w.DogName, w.Status, w.Notes)
	if err := row.Scan(&w.CreatedAt, &w.UpdatedAt); err != nil {
		return Walk{}, Code{}, err
	}

	row = tx.QueryRow(ctx, `
		INSERT INTO qr_codes (id, code, code_type, walk_id, created_by, is_active, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, code.ID, code.Code, code.CodeType, code.WalkID, clientID, code.IsActive, code.ExpiresAt)
	if err := row.Scan(&code.CreatedAt); err != nil {
		return Walk{}, Code{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Walk{}, Code{}, err
	}
	return w, code, nil
}

// ScanCode binds the scanning walker to the pending walk behind the
// code, activates it and spends the code, all in one transaction.
func (s *Service) ScanCode(ctx context.Context, walkerID, code string) (Walk, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Walk{}, err
	}
	defer tx.Rollback(ctx)

	var qrID, walkID string
	err = tx.QueryRow(ctx, `
		SELECT id, walk_id FROM qr_codes
		WHERE code=$1 AND is_active AND code_type=$2
		  AND (expires_at IS NULL OR expires_at > now())
	`, code, CodeTypeWalk).Scan(&qrID, &walkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Walk{}, ErrCodeInvalid
		}
		return Walk{}, err
	}

	// Flipping only pending walks also rejects a second scan racing the
	// first: one of them sees zero rows updated.
	var w Walk
	row := tx.QueryRow(ctx, `
		UPDATE walks
		SET walker_id=$2, status=$3, start_time=now(), updated_at=now()
		WHERE id=$1 AND status=$4
		RETURNING id, client_id, dog_name, status, start_time, COALESCE(notes,''), created_at, updated_at
	`, walkID, walkerID, StatusActive, StatusPending)
	if err := row.Scan(&w.ID, &w.ClientID, &w.DogName, &w.Status, &w.StartTime, &w.Notes, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Walk{}, ErrInvalidTransition
		}
		return Walk{}, err
	}
	w.WalkerID = walkerID

	if _, err := tx.Exec(ctx, `
		UPDATE qr_codes SET is_active=false WHERE id=$1
	`, qrID); err != nil {
		return Walk{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Walk{}, err
	}

	s.notify(w.ClientID, "walk_activated", w.ID)
	return w, nil
}

// StartGroupWalk opens an active walk led by the walker and notifies
// the chosen audience. Audience defaults to every active affiliated
// client.
func (s *Service) StartGroupWalk(ctx context.Context, walkerID string, req GroupWalkRequest) (Walk, []string, error) {
	if req.DogName == "" {
		req.DogName = "Paseo grupal"
	}

	w := Walk{
		ID:       uuid.NewString(),
		ClientID: walkerID,
		WalkerID: walkerID,
		DogName:  req.DogName,
		Status:   StatusActive,
		Notes:    req.Notes,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO walks (id, client_id, walker_id, dog_name, status, notes, start_time)
		VALUES ($1,$2,$3,$4,$5,$6,now())
		RETURNING start_time, created_at, updated_at
	`, w.ID, w.ClientID, w.WalkerID, w.DogName, w.Status, w.Notes)
	if err := row.Scan(&w.StartTime, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return Walk{}, nil, err
	}

	recipients, err := s.resolveAudience(ctx, walkerID, req)
	if err != nil {
		return Walk{}, nil, err
	}
	for _, clientID := range recipients {
		s.notify(clientID, "walk_started", w.ID)
	}
	return w, recipients, nil
}

func (s *Service) resolveAudience(ctx context.Context, walkerID string, req GroupWalkRequest) ([]string, error) {
	switch req.Audience {
	case "manual":
		return req.ClientIDs, nil
	case "group":
		rows, err := s.db.Query(ctx, `
			SELECT m.user_id
			FROM group_members m
			JOIN walker_groups g ON g.id = m.group_id
			WHERE m.group_id=$1 AND g.admin_id=$2 AND g.is_active
		`, req.GroupID, walkerID)
		if err != nil {
			return nil, err
		}
		return collectIDs(rows)
	default:
		rows, err := s.db.Query(ctx, `
			SELECT user_id FROM affiliations WHERE admin_id=$1 AND is_active
		`, walkerID)
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

// Get returns one walk, readable only by its client or walker.
func (s *Service) Get(ctx context.Context, viewerID, walkID string) (Walk, error) {
	w, err := s.fetch(ctx, walkID)
	if err != nil {
		return Walk{}, err
	}
	if w.ClientID != viewerID && w.WalkerID != viewerID {
		return Walk{}, ErrNotParticipant
	}
	return w, nil
}

func (s *Service) fetch(ctx context.Context, walkID string) (Walk, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, client_id, COALESCE(walker_id::text,''), dog_name, status,
		       start_time, end_time, COALESCE(notes,''), created_at, updated_at
		FROM walks WHERE id=$1
	`, walkID)
	var w Walk
	if err := row.Scan(&w.ID, &w.ClientID, &w.WalkerID, &w.DogName, &w.Status,
		&w.StartTime, &w.EndTime, &w.Notes, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return Walk{}, err
	}
	return w, nil
}

// List returns the walks a user participates in, newest first, on
// either side of the leash.
func (s *Service) List(ctx context.Context, userID string) ([]Walk, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, client_id, COALESCE(walker_id::text,''), dog_name, status,
		       start_time, end_time, COALESCE(notes,''), created_at, updated_at
		FROM walks
		WHERE client_id=$1 OR walker_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var walks []Walk
	for rows.Next() {
		var w Walk
		if err := rows.Scan(&w.ID, &w.ClientID, &w.WalkerID, &w.DogName, &w.Status,
			&w.StartTime, &w.EndTime, &w.Notes, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		walks = append(walks, w)
	}
	return walks, rows.Err()
}

// SetStatus applies a guarded transition. Completing a walk stamps
// end_time and credits the walker's completed-walk counter.
func (s *Service) SetStatus(ctx context.Context, walkID, actorID, next string) (Walk, error) {
	w, err := s.Get(ctx, actorID, walkID)
	if err != nil {
		return Walk{}, err
	}
	if !validNext[w.Status][next] {
		return Walk{}, ErrInvalidTransition
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Walk{}, err
	}
	defer tx.Rollback(ctx)

	if next == StatusCompleted {
		now := time.Now()
		w.EndTime = &now
		if _, err := tx.Exec(ctx, `
			UPDATE walks SET status=$2, end_time=now(), updated_at=now() WHERE id=$1
		`, walkID, next); err != nil {
			return Walk{}, err
		}
		if w.WalkerID != "" {
			if _, err := tx.Exec(ctx, `
				UPDATE profiles SET completed_walks_count = COALESCE(completed_walks_count,0) + 1 WHERE id=$1
			`, w.WalkerID); err != nil {
				return Walk{}, err
			}
		}
	} else {
		if _, err := tx.Exec(ctx, `
			UPDATE walks SET status=$2, updated_at=now() WHERE id=$1
		`, walkID, next); err != nil {
			return Walk{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Walk{}, err
	}

	w.Status = next
	return w, nil
}

// AddLocation appends a GPS point to an active walk and broadcasts it
// on the walk's feed. Points are never reconciled or deduplicated;
// subscribers take the last event as current.
func (s *Service) AddLocation(ctx context.Context, walkerID, walkID string, lat, lng float64) (Location, error) {
	var status, boundWalker string
	err := s.db.QueryRow(ctx, `
		SELECT status, COALESCE(walker_id::text,'') FROM walks WHERE id=$1
	`, walkID).Scan(&status, &boundWalker)
	if err != nil {
		return Location{}, err
	}
	if boundWalker != walkerID {
		return Location{}, ErrNotParticipant
	}
	if status != StatusActive {
		return Location{}, ErrInvalidTransition
	}

	loc := Location{
		ID:        uuid.NewString(),
		WalkID:    walkID,
		Latitude:  lat,
		Longitude: lng,
		Timestamp: time.Now(),
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO locations (id, walk_id, latitude, longitude, timestamp)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, loc.ID, loc.WalkID, loc.Latitude, loc.Longitude, loc.Timestamp)
	if err := row.Scan(&loc.CreatedAt); err != nil {
		return Location{}, err
	}

	if s.hub != nil {
		payload, _ := json.Marshal(loc)
		s.hub.Broadcast(stream.WalkTopic(walkID), payload)
	}
	return loc, nil
}

// Locations returns the GPS trail, gated like Get so only the walk's
// two parties can replay it.
func (s *Service) Locations(ctx context.Context, viewerID, walkID string) ([]Location, error) {
	if _, err := s.Get(ctx, viewerID, walkID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, walk_id, latitude, longitude, timestamp, created_at
		FROM locations WHERE walk_id=$1
		ORDER BY timestamp DESC
	`, walkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.WalkID, &l.Latitude, &l.Longitude, &l.Timestamp, &l.CreatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (s *Service) notify(userID, event, walkID string) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"event": event, "walk_id": walkID})
	s.hub.Broadcast(stream.UserTopic(userID), payload)
}
