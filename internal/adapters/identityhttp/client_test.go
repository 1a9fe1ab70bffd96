package identityhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	identityport "github.com/wayfarer-app/account-api/internal/ports/out/identity"
	"github.com/wayfarer-app/account-api/internal/platform/config"
)

// fakeProvider mimics the provider's /user, /logout surface.
type fakeProvider struct {
	validToken string
	userID     string

	updateCalls atomic.Int32
	logoutCalls atomic.Int32

	rejectUpdateWith string // when set, PUT /user fails with this message
}

func (p *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if r.Header.Get("Authorization") != "Bearer "+p.validToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": p.userID})
		case http.MethodPut:
			p.updateCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer "+p.validToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if p.rejectUpdateWith != "" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_ = json.NewEncoder(w).Encode(map[string]string{"msg": p.rejectUpdateWith})
				return
			}
			var body struct {
				Password string `json:"password"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": p.userID})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.logoutCalls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestClient(t *testing.T, p *fakeProvider) *Client {
	t.Helper()
	srv := httptest.NewServer(p.handler())
	t.Cleanup(srv.Close)
	return NewWithOptions(config.IdentityConfig{
		BaseURL:     srv.URL,
		APIKey:      "anon-key",
		HTTPTimeout: 2 * time.Second,
	}, srv.Client())
}

func TestClient_EstablishSession(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{validToken: "at-1", userID: "user-1"}
	c := newTestClient(t, p)

	sess, err := c.EstablishSession(context.Background(), "at-1", "rt-1")
	if err != nil {
		t.Fatalf("EstablishSession err=%v", err)
	}
	if sess.UserID != "user-1" || sess.AccessToken != "at-1" || sess.RefreshToken != "rt-1" {
		t.Fatalf("sess=%+v", sess)
	}

	got, _ := c.CurrentSession(context.Background())
	if got != sess {
		t.Fatalf("CurrentSession=%+v, want %+v", got, sess)
	}
}

func TestClient_EstablishSession_InvalidToken(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{validToken: "at-1", userID: "user-1"}
	c := newTestClient(t, p)

	_, err := c.EstablishSession(context.Background(), "expired", "")
	if !errors.Is(err, identityport.ErrInvalidToken) {
		t.Fatalf("err=%v, want ErrInvalidToken", err)
	}
	sess, _ := c.CurrentSession(context.Background())
	if !sess.IsZero() {
		t.Fatalf("session installed from rejected token: %+v", sess)
	}
}

func TestClient_UpdateCredential_NoSession(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{validToken: "at-1", userID: "user-1"}
	c := newTestClient(t, p)

	err := c.UpdateCredential(context.Background(), "abcdef")
	if !errors.Is(err, identityport.ErrNoSession) {
		t.Fatalf("err=%v, want ErrNoSession", err)
	}
	if p.updateCalls.Load() != 0 {
		t.Fatalf("provider called without a session")
	}
}

func TestClient_UpdateCredential_ProviderMessageVerbatim(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{validToken: "at-1", userID: "user-1", rejectUpdateWith: "password is too weak"}
	c := newTestClient(t, p)

	if _, err := c.EstablishSession(context.Background(), "at-1", ""); err != nil {
		t.Fatalf("EstablishSession err=%v", err)
	}
	err := c.UpdateCredential(context.Background(), "abcdef")
	if err == nil || err.Error() != "password is too weak" {
		t.Fatalf("err=%v, want provider message verbatim", err)
	}
}

func TestClient_UpdateCredential_Success(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{validToken: "at-1", userID: "user-1"}
	c := newTestClient(t, p)

	if _, err := c.EstablishSession(context.Background(), "at-1", ""); err != nil {
		t.Fatalf("EstablishSession err=%v", err)
	}
	if err := c.UpdateCredential(context.Background(), "abcdef"); err != nil {
		t.Fatalf("UpdateCredential err=%v", err)
	}
	// The same session continues after a password change.
	sess, _ := c.CurrentSession(context.Background())
	if sess.IsZero() {
		t.Fatalf("session dropped by password change")
	}
}

func TestClient_SignOut(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{validToken: "at-1", userID: "user-1"}
	c := newTestClient(t, p)

	if _, err := c.EstablishSession(context.Background(), "at-1", ""); err != nil {
		t.Fatalf("EstablishSession err=%v", err)
	}
	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut err=%v", err)
	}
	if p.logoutCalls.Load() != 1 {
		t.Fatalf("logout calls=%d, want 1", p.logoutCalls.Load())
	}
	sess, _ := c.CurrentSession(context.Background())
	if !sess.IsZero() {
		t.Fatalf("session survives sign-out: %+v", sess)
	}

	// Signing out without a session is a no-op, not an error.
	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("second SignOut err=%v", err)
	}
	if p.logoutCalls.Load() != 1 {
		t.Fatalf("logout calls=%d after no-op sign-out, want 1", p.logoutCalls.Load())
	}
}
