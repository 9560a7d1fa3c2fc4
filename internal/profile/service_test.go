package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

func profileRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "email", "phone", "avatar_url", "completed_walks_count", "created_at", "updated_at"})
}

func TestGetProfile(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs("user-1").
		WillReturnRows(profileRows().AddRow("user-1", "Maria", "maria@example.com", "4491112222", "", 3, time.Now(), time.Now()))

	svc := NewService(mock)
	p, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Name != "Maria" || p.CompletedWalksCount != 3 {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestUpdateProfilePatchesOnlyGivenFields(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs("user-1").
		WillReturnRows(profileRows().AddRow("user-1", "Maria", "maria@example.com", "4491112222", "", 0, time.Now(), time.Now()))
	mock.ExpectExec(`UPDATE profiles`).
		WithArgs("user-1", "Maria Lopez", "4491112222").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock)
	p, err := svc.Update(context.Background(), "user-1", UpdateRequest{Name: "Maria Lopez"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.Name != "Maria Lopez" || p.Phone != "4491112222" {
		t.Fatalf("expected patch to keep phone, got %+v", p)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetAvatar(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`UPDATE profiles SET avatar_url`).
		WithArgs("user-1", "https://cdn.example.com/a.png").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock)
	if err := svc.SetAvatar(context.Background(), "user-1", "https://cdn.example.com/a.png"); err != nil {
		t.Fatalf("set avatar: %v", err)
	}
}

func TestGetProfileError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs("missing").
		WillReturnError(errors.New("no rows"))

	svc := NewService(mock)
	if _, err := svc.Get(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error")
	}
}
