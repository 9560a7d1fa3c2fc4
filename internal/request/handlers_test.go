package request

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func authStub(userID, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	}
}

func TestCreateRequestRoute(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO walk_requests`).
		WithArgs(pgxmock.AnyArg(), "user-1", "walker-1", "2025-06-01", "10:00",
			60, 1, "Nos vemos en el parque", StatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/requests"), NewService(mock, nil), authStub("user-1", "user"))

	body, _ := json.Marshal(CreateRequest{
		WalkerID:        "walker-1",
		RequestedDate:   "2025-06-01",
		RequestedTime:   "10:00",
		DurationMinutes: 60,
		NumberOfDogs:    1,
		SpecialNotes:    "Nos vemos en el parque",
	})
	req := httptest.NewRequest(http.MethodPost, "/requests/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %v status %d", err, resp.StatusCode)
	}
}

func TestCreateRequestRouteForNewClient(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	// No affiliation exists yet; booking still goes through.
	mock.ExpectQuery(`INSERT INTO walk_requests`).
		WithArgs(pgxmock.AnyArg(), "user-new", "walker-1", "2025-06-01", "10:00",
			60, 1, "", StatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/requests"), NewService(mock, nil), authStub("user-new", "user"))

	body, _ := json.Marshal(CreateRequest{WalkerID: "walker-1", RequestedDate: "2025-06-01", RequestedTime: "10:00"})
	req := httptest.NewRequest(http.MethodPost, "/requests/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIncomingRouteWalkerOnly(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/requests"), NewService(nil, nil), authStub("user-1", "user"))

	req := httptest.NewRequest(http.MethodGet, "/requests/incoming", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for client, got %d", resp.StatusCode)
	}
}

func TestRespondRouteConflictWhenResolved(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE walk_requests`).
		WithArgs("req-1", "walker-1", StatusAccepted, "", StatusPending).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	app := fiber.New()
	RegisterRoutes(app.Group("/requests"), NewService(mock, nil), authStub("walker-1", "admin"))

	body, _ := json.Marshal(RespondRequest{Accept: true})
	req := httptest.NewRequest(http.MethodPost, "/requests/req-1/respond", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestListRoute(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT r.id, r.client_id, r.walker_id`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(requestCols(false)).
			AddRow("req-1", "user-1", "walker-1", "2025-06-01", "10:00",
				60, 1, "", StatusPending, "", time.Now(), time.Now(), "Paco", ""))

	app := fiber.New()
	RegisterRoutes(app.Group("/requests"), NewService(mock, nil), authStub("user-1", "user"))

	req := httptest.NewRequest(http.MethodGet, "/requests/", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list: %v status %d", err, resp.StatusCode)
	}

	var requests []WalkRequest
	if err := json.NewDecoder(resp.Body).Decode(&requests); err != nil {
		t.Fatalf("decode requests: %v", err)
	}
	if len(requests) != 1 || requests[0].CounterpartName != "Paco" {
		t.Fatalf("unexpected requests %+v", requests)
	}
}
