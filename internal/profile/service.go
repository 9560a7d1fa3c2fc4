package profile

import (
	"context"

	"github.com/DeLaConcha232/doggy-walking/internal/db"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(phone,''), COALESCE(avatar_url,''),
		       COALESCE(completed_walks_count,0), created_at, updated_at
		FROM profiles WHERE id=$1
	`, userID)
	var p Profile
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.AvatarURL,
		&p.CompletedWalksCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, userID string, patch UpdateRequest) (Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if patch.Name != "" {
		p.Name = patch.Name
	}
	if patch.Phone != "" {
		p.Phone = patch.Phone
	}

	_, err = s.db.Exec(ctx, `
		UPDATE profiles
		SET name=$2, phone=$3, updated_at=now()
		WHERE id=$1
	`, p.ID, p.Name, p.Phone)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *Service) SetAvatar(ctx context.Context, userID, url string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE profiles SET avatar_url=$2, updated_at=now() WHERE id=$1
	`, userID, url)
	return err
}
