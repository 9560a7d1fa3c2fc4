package request

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/DeLaConcha232/doggy-walking/internal/db"
	"github.com/DeLaConcha232/doggy-walking/internal/stream"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotPending = errors.New("request is no longer pending")

type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(db db.Querier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

// Create files a pending walk request and pings the walker's
// notification feed. Any client may request any walker; the
// affiliation is established when the walker accepts.
func (s *Service) Create(ctx context.Context, clientID string, req CreateRequest) (WalkRequest, error) {
	if req.WalkerID == "" || req.RequestedDate == "" || req.RequestedTime == "" {
		return WalkRequest{}, errors.New("walker_id, requested_date and requested_time required")
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 60
	}
	if req.NumberOfDogs <= 0 {
		req.NumberOfDogs = 1
	}

	r := WalkRequest{
		ID:              uuid.NewString(),
		ClientID:        clientID,
		WalkerID:        req.WalkerID,
		RequestedDate:   req.RequestedDate,
		RequestedTime:   req.RequestedTime,
		DurationMinutes: req.DurationMinutes,
		NumberOfDogs:    req.NumberOfDogs,
		SpecialNotes:    req.SpecialNotes,
		Status:          StatusPending,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO walk_requests
			(id, client_id, walker_id, requested_date, requested_time,
			 duration_minutes, number_of_dogs, special_notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at
	`, r.ID, r.ClientID, r.WalkerID, r.RequestedDate, r.RequestedTime,
		r.DurationMinutes, r.NumberOfDogs, r.SpecialNotes, r.Status)
	if err := row.Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
		return WalkRequest{}, err
	}

	s.notify(r.WalkerID, "request_created", r.ID)
	return r, nil
}

// ListForClient returns the client's requests, newest first, with the
// walker's profile joined in.
func (s *Service) ListForClient(ctx context.Context, clientID string) ([]WalkRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.id, r.client_id, r.walker_id, r.requested_date::text, r.requested_time::text,
		       r.duration_minutes, r.number_of_dogs, COALESCE(r.special_notes,''),
		       r.status, COALESCE(r.response_notes,''), r.created_at, r.updated_at,
		       COALESCE(p.name,''), COALESCE(p.avatar_url,'')
		FROM walk_requests r
		JOIN profiles p ON p.id = r.walker_id
		WHERE r.client_id=$1
		ORDER BY r.created_at DESC
	`, clientID)
	if err != nil {
		return nil, err
	}
	return scanRequests(rows, false)
}

// ListForWalker returns requests addressed to the walker, newest
// first, with the client's profile joined in.
func (s *Service) ListForWalker(ctx context.Context, walkerID string) ([]WalkRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.id, r.client_id, r.walker_id, r.requested_date::text, r.requested_time::text,
		       r.duration_minutes, r.number_of_dogs, COALESCE(r.special_notes,''),
		       r.status, COALESCE(r.response_notes,''), r.created_at, r.updated_at,
		       COALESCE(p.name,''), COALESCE(p.avatar_url,''), COALESCE(p.phone,'')
		FROM walk_requests r
		JOIN profiles p ON p.id = r.client_id
		WHERE r.walker_id=$1
		ORDER BY r.created_at DESC
	`, walkerID)
	if err != nil {
		return nil, err
	}
	return scanRequests(rows, true)
}

// Cancel withdraws the client's own still-pending request. The
// only-if-pending predicate keeps a cancel from clobbering a response
// that landed first.
func (s *Service) Cancel(ctx context.Context, clientID, requestID string) (WalkRequest, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE walk_requests
		SET status=$3, updated_at=now()
		WHERE id=$1 AND client_id=$2 AND status=$4
		RETURNING id, client_id, walker_id, requested_date::text, requested_time::text,
		          duration_minutes, number_of_dogs, COALESCE(special_notes,''),
		          status, COALESCE(response_notes,''), created_at, updated_at
	`, requestID, clientID, StatusCancelled, StatusPending)

	var r WalkRequest
	err := row.Scan(&r.ID, &r.ClientID, &r.WalkerID, &r.RequestedDate, &r.RequestedTime,
		&r.DurationMinutes, &r.NumberOfDogs, &r.SpecialNotes,
		&r.Status, &r.ResponseNotes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WalkRequest{}, ErrNotPending
		}
		return WalkRequest{}, err
	}
	return r, nil
}

// Respond accepts or rejects a pending request. Acceptance creates the
// affiliation if absent, in the same transaction, so a brand-new
// client whose first booking is accepted ends up linked to the walker.
func (s *Service) Respond(ctx context.Context, walkerID, requestID string, resp RespondRequest) (WalkRequest, error) {
	next := StatusRejected
	if resp.Accept {
		next = StatusAccepted
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return WalkRequest{}, err
	}
	defer tx.Rollback(ctx)

	// Only-if-pending guard: two concurrent responses race for the
	// single row update and the loser sees ErrNotPending.
	row := tx.QueryRow(ctx, `
		UPDATE walk_requests
		SET status=$3, response_notes=$4, updated_at=now()
		WHERE id=$1 AND walker_id=$2 AND status=$5
		RETURNING id, client_id, walker_id, requested_date::text, requested_time::text,
		          duration_minutes, number_of_dogs, COALESCE(special_notes,''),
		          status, COALESCE(response_notes,''), created_at, updated_at
	`, requestID, walkerID, next, resp.ResponseNotes, StatusPending)

	var r WalkRequest
	err = row.Scan(&r.ID, &r.ClientID, &r.WalkerID, &r.RequestedDate, &r.RequestedTime,
		&r.DurationMinutes, &r.NumberOfDogs, &r.SpecialNotes,
		&r.Status, &r.ResponseNotes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WalkRequest{}, ErrNotPending
		}
		return WalkRequest{}, err
	}

	if resp.Accept {
		if _, err := tx.Exec(ctx, `
			INSERT INTO affiliations (id, user_id, admin_id, is_active)
			VALUES ($1,$2,$3,true)
			ON CONFLICT (user_id, admin_id) DO UPDATE SET is_active=true
		`, uuid.NewString(), r.ClientID, walkerID); err != nil {
			return WalkRequest{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return WalkRequest{}, err
	}

	event := "request_rejected"
	if resp.Accept {
		event = "request_accepted"
	}
	s.notify(r.ClientID, event, r.ID)
	return r, nil
}

func scanRequests(rows pgx.Rows, withPhone bool) ([]WalkRequest, error) {
	defer rows.Close()

	var requests []WalkRequest
	for rows.Next() {
		var r WalkRequest
		dest := []any{&r.ID, &r.ClientID, &r.WalkerID, &r.RequestedDate, &r.RequestedTime,
			&r.DurationMinutes, &r.NumberOfDogs, &r.SpecialNotes,
			&r.Status, &r.ResponseNotes, &r.CreatedAt, &r.UpdatedAt,
			&r.CounterpartName, &r.CounterpartAvatar}
		if withPhone {
			dest = append(dest, &r.CounterpartPhone)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (s *Service) notify(userID, event, requestID string) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"event": event, "request_id": requestID})
	s.hub.Broadcast(stream.UserTopic(userID), payload)
}
