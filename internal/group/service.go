package group

import (
	"context"
	"errors"
	"regexp"

	"github.com/DeLaConcha232/doggy-walking/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotOwner = errors.New("group does not belong to walker")

// DefaultColor tags groups created without an explicit color.
const DefaultColor = "#3B82F6"

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, walkerID string, req SaveRequest) (Group, error) {
	if err := validate(&req); err != nil {
		return Group{}, err
	}

	g := Group{
		ID:          uuid.NewString(),
		AdminID:     walkerID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		IsActive:    true,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO walker_groups (id, admin_id, name, description, color, is_active)
		VALUES ($1,$2,$3,$4,$5,true)
		RETURNING created_at, updated_at
	`, g.ID, g.AdminID, g.Name, g.Description, g.Color)
	if err := row.Scan(&g.CreatedAt, &g.UpdatedAt); err != nil {
		return Group{}, err
	}
	return g, nil
}

func (s *Service) Update(ctx context.Context, walkerID, groupID string, req SaveRequest) (Group, error) {
	if err := validate(&req); err != nil {
		return Group{}, err
	}

	row := s.db.QueryRow(ctx, `
		UPDATE walker_groups
		SET name=$3, description=$4, color=$5, updated_at=now()
		WHERE id=$1 AND admin_id=$2 AND is_active
		RETURNING id, admin_id, name, COALESCE(description,''), color, is_active, created_at, updated_at
	`, groupID, walkerID, req.Name, req.Description, req.Color)

	var g Group
	err := row.Scan(&g.ID, &g.AdminID, &g.Name, &g.Description, &g.Color, &g.IsActive, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, ErrNotOwner
		}
		return Group{}, err
	}
	return g, nil
}

// Delete soft-deletes so historical broadcasts keep a group to point at.
func (s *Service) Delete(ctx context.Context, walkerID, groupID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE walker_groups SET is_active=false, updated_at=now()
		WHERE id=$1 AND admin_id=$2 AND is_active
	`, groupID, walkerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotOwner
	}
	return nil
}

// List returns the walker's active groups with member counts.
func (s *Service) List(ctx context.Context, walkerID string) ([]Group, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.id, g.admin_id, g.name, COALESCE(g.description,''), g.color, g.is_active,
		       (SELECT count(*) FROM group_members m WHERE m.group_id = g.id),
		       g.created_at, g.updated_at
		FROM walker_groups g
		WHERE g.admin_id=$1 AND g.is_active
		ORDER BY g.created_at DESC
	`, walkerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.AdminID, &g.Name, &g.Description, &g.Color, &g.IsActive,
			&g.MemberCount, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Service) Members(ctx context.Context, walkerID, groupID string) ([]Member, error) {
	if err := s.mustOwn(ctx, walkerID, groupID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT m.user_id, COALESCE(p.name,''), COALESCE(p.avatar_url,''), m.created_at
		FROM group_members m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.group_id=$1
		ORDER BY p.name
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.AvatarURL, &m.AddedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// SaveMembers replaces the membership with the given set by diffing
// against the current rows in one transaction. Rows that stay are
// untouched, so their created_at survives the save.
func (s *Service) SaveMembers(ctx context.Context, walkerID, groupID string, userIDs []string) error {
	if err := s.mustOwn(ctx, walkerID, groupID); err != nil {
		return err
	}

	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT user_id FROM group_members WHERE group_id=$1
	`, groupID)
	if err != nil {
		return err
	}
	current := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		current[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for id := range current {
		if !wanted[id] {
			if _, err := tx.Exec(ctx, `
				DELETE FROM group_members WHERE group_id=$1 AND user_id=$2
			`, groupID, id); err != nil {
				return err
			}
		}
	}
	for _, id := range userIDs {
		if !current[id] {
			if _, err := tx.Exec(ctx, `
				INSERT INTO group_members (id, group_id, user_id) VALUES ($1,$2,$3)
			`, uuid.NewString(), groupID, id); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func validate(req *SaveRequest) error {
	if req.Name == "" {
		return errors.New("name required")
	}
	if req.Color == "" {
		req.Color = DefaultColor
	}
	if !hexColor.MatchString(req.Color) {
		return errors.New("color must be a #RRGGBB hex value")
	}
	return nil
}

func (s *Service) mustOwn(ctx context.Context, walkerID, groupID string) error {
	var owner bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM walker_groups WHERE id=$1 AND admin_id=$2 AND is_active
		)
	`, groupID, walkerID).Scan(&owner)
	if err != nil {
		return err
	}
	if !owner {
		return ErrNotOwner
	}
	return nil
}
