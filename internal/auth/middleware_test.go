package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestJWTMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/private", JWTMiddleware("secret"), func(c *fiber.Ctx) error {
		if c.Locals("user_id") == nil {
			return fiber.NewError(fiber.StatusUnauthorized)
		}
		return c.SendStatus(http.StatusOK)
	})

	svc := NewService("secret", nil)

	// missing token
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}

	// valid token
	token, _ := svc.signToken("user-1", RoleClient, accessTokenTTL)
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok")
	}

	// token signed with another secret
	other := NewService("other", nil)
	badToken, _ := other.signToken("user-1", RoleClient, accessTokenTTL)
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+badToken)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized for forged token")
	}
}

func TestRequireWalker(t *testing.T) {
	app := fiber.New()
	app.Get("/walker", JWTMiddleware("secret"), RequireWalker(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	svc := NewService("secret", nil)

	clientToken, _ := svc.signToken("user-1", RoleClient, accessTokenTTL)
	req := httptest.NewRequest(http.MethodGet, "/walker", nil)
	req.Header.Set("Authorization", "Bearer "+clientToken)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forbidden for client role, got %d", resp.StatusCode)
	}

	walkerToken, _ := svc.signToken("walker-1", RoleWalker, accessTokenTTL)
	req = httptest.NewRequest(http.MethodGet, "/walker", nil)
	req.Header.Set("Authorization", "Bearer "+walkerToken)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok for walker role, got %d", resp.StatusCode)
	}
}

func TestBearerFromHeader(t *testing.T) {
	if bearerFromHeader("Bearer abc") != "abc" {
		t.Fatalf("expected token")
	}
	if bearerFromHeader("Basic abc") != "" {
		t.Fatalf("expected empty for basic auth")
	}
	if bearerFromHeader("") != "" {
		t.Fatalf("expected empty for missing header")
	}
}
