package affiliation

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/DeLaConcha232/doggy-walking/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrCodeInvalid = errors.New("code invalid or expired")
	ErrClientLimit = errors.New("walker client limit reached")
)

const codeTTL = 24 * time.Hour

// ClientLimiter reports how many affiliated clients a walker's plan
// allows and how many are in use. Implemented by walker.Service.
type ClientLimiter interface {
	ClientLimit(ctx context.Context, walkerID string) (limit, count int, err error)
}

type Service struct {
	db     db.Querier
	limits ClientLimiter
}

func NewService(db db.Querier, limits ClientLimiter) *Service {
	return &Service{db: db, limits: limits}
}

// CreateCode mints a one-time affiliation code for the walker.
func (s *Service) CreateCode(ctx context.Context, walkerID string) (Code, error) {
	code := Code{
		ID:        uuid.NewString(),
		Code:      NewCode(),
		CodeType:  CodeTypeAffiliation,
		AdminID:   walkerID,
		IsActive:  true,
		ExpiresAt: time.Now().Add(codeTTL),
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO qr_codes (id, code, code_type, admin_id, created_by, is_active, expires_at)
		VALUES ($1,$2,$3,$4,$4,$5,$6)
		RETURNING created_at
	`, code.ID, code.Code, code.CodeType, code.AdminID, code.IsActive, code.ExpiresAt)
	if err := row.Scan(&code.CreatedAt); err != nil {
		return Code{}, err
	}
	return code, nil
}

// PermanentCode returns the walker's reusable pairing code, creating it
// on first use.
func (s *Service) PermanentCode(ctx context.Context, walkerID string) (string, error) {
	var code string
	err := s.db.QueryRow(ctx, `
		SELECT code FROM admin_qr_codes WHERE admin_id=$1
	`, walkerID).Scan(&code)
	if err == nil {
		return code, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	code = NewCode()
	_, err = s.db.Exec(ctx, `
		INSERT INTO admin_qr_codes (id, admin_id, code)
		VALUES ($1,$2,$3)
	`, uuid.NewString(), walkerID, code)
	if err != nil {
		return "", err
	}
	return code, nil
}

// Scan links the scanning client to the walker behind the code. The
// affiliation insert and the one-time code deactivation run in a single
// transaction so a crash cannot leave a spent code reusable. Scanning
// while already linked is a no-op success and leaves the code active.
func (s *Service) Scan(ctx context.Context, userID, code string) (ScanResult, error) {
	walkerID, qrID, oneTime, err := s.resolveCode(ctx, code)
	if err != nil {
		return ScanResult{}, err
	}

	var existing Affiliation
	err = s.db.QueryRow(ctx, `
		SELECT id, user_id, admin_id, is_active, affiliated_at
		FROM affiliations WHERE user_id=$1 AND admin_id=$2 AND is_active
	`, userID, walkerID).Scan(&existing.ID, &existing.UserID, &existing.AdminID, &existing.IsActive, &existing.AffiliatedAt)
	if err == nil {
		return ScanResult{Affiliation: existing, AlreadyLinked: true}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return ScanResult{}, err
	}

	limit, count, err := s.limits.ClientLimit(ctx, walkerID)
	if err != nil {
		return ScanResult{}, err
	}
	if count >= limit {
		return ScanResult{}, ErrClientLimit
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return ScanResult{}, err
	}
	defer tx.Rollback(ctx)

	created := Affiliation{UserID: userID, AdminID: walkerID, IsActive: true}
	row := tx.QueryRow(ctx, `
		INSERT INTO affiliations (id, user_id, admin_id, is_active)
		VALUES ($1,$2,$3,true)
		ON CONFLICT (user_id, admin_id) DO UPDATE SET is_active=true, affiliated_at=now()
		RETURNING id, affiliated_at
	`, uuid.NewString(), userID, walkerID)
	if err := row.Scan(&created.ID, &created.AffiliatedAt); err != nil {
		return ScanResult{}, err
	}

	if oneTime {
		if _, err := tx.Exec(ctx, `
			UPDATE qr_codes SET is_active=false WHERE id=$1
		`, qrID); err != nil {
			return ScanResult{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ScanResult{}, err
	}
	return ScanResult{Affiliation: created}, nil
}

func (s *Service) resolveCode(ctx context.Context, code string) (walkerID, qrID string, oneTime bool, err error) {
	err = s.db.QueryRow(ctx, `
		SELECT id, admin_id FROM qr_codes
		WHERE code=$1 AND is_active AND code_type=$2
		  AND (expires_at IS NULL OR expires_at > now())
	`, code, CodeTypeAffiliation).Scan(&qrID, &walkerID)
	if err == nil {
		return walkerID, qrID, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", "", false, err
	}

	err = s.db.QueryRow(ctx, `
		SELECT admin_id FROM admin_qr_codes WHERE code=$1
	`, code).Scan(&walkerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", false, ErrCodeInvalid
		}
		return "", "", false, err
	}
	return walkerID, "", false, nil
}

// Clients lists the walker's active roster with profile details.
func (s *Service) Clients(ctx context.Context, walkerID string) ([]Client, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.name, p.email, COALESCE(p.phone,''), COALESCE(p.avatar_url,''), a.affiliated_at
		FROM affiliations a
		JOIN profiles p ON p.id = a.user_id
		WHERE a.admin_id=$1 AND a.is_active
		ORDER BY a.affiliated_at
	`, walkerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.AvatarURL, &c.AffiliatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// Walkers lists the walkers a client is affiliated with.
func (s *Service) Walkers(ctx context.Context, userID string) ([]Client, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.name, p.email, COALESCE(p.phone,''), COALESCE(p.avatar_url,''), a.affiliated_at
		FROM affiliations a
		JOIN profiles p ON p.id = a.admin_id
		WHERE a.user_id=$1 AND a.is_active
		ORDER BY a.affiliated_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var walkers []Client
	for rows.Next() {
		var w Client
		if err := rows.Scan(&w.ID, &w.Name, &w.Email, &w.Phone, &w.AvatarURL, &w.AffiliatedAt); err != nil {
			return nil, err
		}
		walkers = append(walkers, w)
	}
	return walkers, rows.Err()
}

// Unlink soft-deletes the affiliation.
func (s *Service) Unlink(ctx context.Context, walkerID, clientID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE affiliations SET is_active=false WHERE admin_id=$1 AND user_id=$2
	`, walkerID, clientID)
	return err
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewCode returns a 12-character pairing code, the shape the mobile
// client types by hand (e.g. ABC123XYZ...).
func NewCode() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
