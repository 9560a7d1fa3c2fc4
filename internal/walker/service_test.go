package walker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func discoverRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "user_id", "is_available", "service_radius", "hourly_rate",
		"specialties", "bio", "city", "state", "created_at", "updated_at",
		"name", "avatar_url", "completed_walks_count", "latitude", "longitude",
	})
}

func TestUpsertProfile(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO walker_profiles`).
		WithArgs(pgxmock.AnyArg(), "walker-1", true, 5.0, 150.0, []string{"large dogs"}, "bio", "Aguascalientes", "AGS").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("wp-1", time.Now(), time.Now()))

	svc := NewService(mock)
	wp, err := svc.UpsertProfile(context.Background(), WalkerProfile{
		UserID:          "walker-1",
		IsAvailable:     true,
		ServiceRadiusKm: 5,
		HourlyRate:      150,
		Specialties:     []string{"large dogs"},
		Bio:             "bio",
		City:            "Aguascalientes",
		State:           "AGS",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if wp.ID != "wp-1" {
		t.Fatalf("unexpected id %q", wp.ID)
	}
}

func TestDiscoverFiltersByServiceRadius(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	// two walkers with live positions: one ~1km away with a 5km radius,
	// one ~400km away with a 5km radius, plus one without a position
	nearLat, nearLng := 21.8853, -102.2916
	nearbyLat := nearLat + 0.009
	farLat, farLng := 19.4326, -99.1332

	mock.ExpectQuery(`SELECT w.id, w.user_id, w.is_available`).
		WithArgs("").
		WillReturnRows(discoverRows().
			AddRow("wp-1", "walker-1", true, 5.0, 150.0, []string{}, "", "Aguascalientes", "AGS", time.Now(), time.Now(), "Near", "", 10, &nearbyLat, &nearLng).
			AddRow("wp-2", "walker-2", true, 5.0, 120.0, []string{}, "", "CDMX", "CMX", time.Now(), time.Now(), "Far", "", 5, &farLat, &farLng).
			AddRow("wp-3", "walker-3", true, 5.0, 100.0, []string{}, "", "", "", time.Now(), time.Now(), "Offline", "", 2, nil, nil))

	svc := NewService(mock)
	listings, err := svc.Discover(context.Background(), "", nearLat, nearLng)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if listings[0].Name != "Near" || listings[0].DistanceKm == nil {
		t.Fatalf("expected nearby walker with distance, got %+v", listings[0])
	}
	if *listings[0].DistanceKm > 2 {
		t.Fatalf("unexpected distance %f", *listings[0].DistanceKm)
	}
	if listings[1].Name != "Offline" || listings[1].DistanceKm != nil {
		t.Fatalf("expected offline walker without distance, got %+v", listings[1])
	}
}

func TestPlanForFallsBackToFree(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT p.id, p.name, p.display_name`).
		WithArgs("walker-1").
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock)
	plan, err := svc.PlanFor(context.Background(), "walker-1")
	if err != nil {
		t.Fatalf("plan for: %v", err)
	}
	if plan.Name != "free" || plan.MaxClients != 6 || plan.DisplayName != "Gratuito" {
		t.Fatalf("unexpected fallback plan %+v", plan)
	}
}

func TestPlanForSurfacesDBError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	// a transient failure must not read as "free plan"
	down := errors.New("connection refused")
	mock.ExpectQuery(`SELECT p.id, p.name, p.display_name`).
		WithArgs("walker-1").
		WillReturnError(down)

	svc := NewService(mock)
	if _, err := svc.PlanFor(context.Background(), "walker-1"); !errors.Is(err, down) {
		t.Fatalf("expected db error to surface, got %v", err)
	}
}

func TestPlanStatusAtLimit(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT p.id, p.name, p.display_name`).
		WithArgs("walker-1").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("walker-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(6))

	svc := NewService(mock)
	status, err := svc.PlanStatusFor(context.Background(), "walker-1")
	if err != nil {
		t.Fatalf("plan status: %v", err)
	}
	if !status.AtLimit || status.RemainingSlots != 0 || status.ClientLimit != 6 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestClientLimit(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT p.id, p.name, p.display_name`).
		WithArgs("walker-1").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("walker-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	svc := NewService(mock)
	limit, count, err := svc.ClientLimit(context.Background(), "walker-1")
	if err != nil {
		t.Fatalf("client limit: %v", err)
	}
	if limit != 6 || count != 4 {
		t.Fatalf("unexpected limit %d count %d", limit, count)
	}
}

func TestSubscribeSwitchesPlanTransactionally(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE walker_subscriptions SET is_active=false`).
		WithArgs("walker-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO walker_subscriptions`).
		WithArgs(pgxmock.AnyArg(), "walker-1", "plan-pro").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	svc := NewService(mock)
	if err := svc.Subscribe(context.Background(), "walker-1", "plan-pro"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
