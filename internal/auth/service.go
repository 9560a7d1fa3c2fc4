package auth

import (
	"context"
	"errors"
	"time"

	"github.com/DeLaConcha232/doggy-walking/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	secret []byte
	db     db.Querier
}

type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func NewService(secret string, db db.Querier) *Service {
	return &Service{
		secret: []byte(secret),
		db:     db,
	}
}

// Register creates the profile and its role assignment in one
// transaction, then issues a token pair. Role defaults to client;
// "admin" registers a walker.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Profile, TokenResponse, error) {
	if req.Email == "" || req.Name == "" || req.Password == "" {
		return Profile{}, TokenResponse{}, errors.New("name, email, password required")
	}
	role := req.Role
	if role == "" {
		role = RoleClient
	}
	if role != RoleClient && role != RoleWalker {
		return Profile{}, TokenResponse{}, errors.New("role must be user or admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Profile{}, TokenResponse{}, err
	}

	profile := Profile{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Profile{}, TokenResponse{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO profiles (id, name, email, phone, password_hash)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at
	`, profile.ID, profile.Name, profile.Email, profile.Phone, profile.PasswordHash)
	if err := row.Scan(&profile.CreatedAt, &profile.UpdatedAt); err != nil {
		return Profile{}, TokenResponse{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_roles (id, user_id, role)
		VALUES ($1,$2,$3)
	`, uuid.NewString(), profile.ID, role)
	if err != nil {
		return Profile{}, TokenResponse{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Profile{}, TokenResponse{}, err
	}

	tokens, err := s.GenerateTokens(ctx, profile.ID, role)
	if err != nil {
		return Profile{}, TokenResponse{}, err
	}
	return profile, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (Profile, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT p.id, p.name, p.email, COALESCE(p.phone,''), COALESCE(p.avatar_url,''),
		       COALESCE(p.completed_walks_count,0), p.password_hash, p.created_at, p.updated_at,
		       COALESCE(r.role, 'user')
		FROM profiles p
		LEFT JOIN user_roles r ON r.user_id = p.id
		WHERE p.email = $1
	`, req.Email)

	var profile Profile
	var role string
	if err := row.Scan(&profile.ID, &profile.Name, &profile.Email, &profile.Phone, &profile.AvatarURL,
		&profile.CompletedWalksCount, &profile.PasswordHash, &profile.CreatedAt, &profile.UpdatedAt, &role); err != nil {
		return Profile{}, TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return Profile{}, TokenResponse{}, ErrInvalidCredentials
	}

	tokens, err := s.GenerateTokens(ctx, profile.ID, role)
	if err != nil {
		return Profile{}, TokenResponse{}, err
	}
	return profile, tokens, nil
}

// UpdatePassword re-hashes the caller's password after checking the
// current one. Outstanding refresh tokens are revoked in the same
// transaction so old sessions cannot mint new access tokens.
func (s *Service) UpdatePassword(ctx context.Context, userID string, req UpdatePasswordRequest) error {
	if len(req.NewPassword) < 6 {
		return errors.New("new password must be at least 6 characters")
	}

	var currentHash string
	err := s.db.QueryRow(ctx, `
		SELECT password_hash FROM profiles WHERE id = $1
	`, userID).Scan(&currentHash)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(currentHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE profiles SET password_hash=$2, updated_at=now() WHERE id=$1
	`, userID, string(hash)); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at=now() WHERE user_id=$1 AND revoked_at IS NULL
	`, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Role resolves the stored role assignment, defaulting to client when
// no row exists.
func (s *Service) Role(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.db.QueryRow(ctx, `
		SELECT role FROM user_roles WHERE user_id = $1
	`, userID).Scan(&role)
	if err != nil {
		return RoleClient, nil
	}
	return role, nil
}

func (s *Service) GenerateTokens(ctx context.Context, userID, role string) (TokenResponse, error) {
	access, err := s.signToken(userID, role, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := s.signToken(userID, role, refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := s.saveRefreshToken(ctx, refresh, userID, refreshTokenTTL); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
		Role:         role,
	}, nil
}

func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (string, string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", "", err
	}

	userID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if err != nil || userID != claims.UserID || time.Now().After(expiresAt) {
		return "", "", errors.New("refresh token invalid")
	}
	return claims.UserID, claims.Role, nil
}

func (s *Service) ValidateAccessToken(token string) (string, string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", "", err
	}
	return claims.UserID, claims.Role, nil
}

func (s *Service) signToken(userID, role string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func (s *Service) saveRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), userID, token, time.Now().Add(ttl))
	return err
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var userID string
	var expiresAt time.Time
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return userID, expiresAt, nil
}
