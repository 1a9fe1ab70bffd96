package main

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Tiny dev-only identity provider.
//
// This is NOT a real auth service. It exists to support local development of
// the account workflows end to end: it mints one-time recovery links and
// serves the provider endpoints the HTTP identity adapter talks to
// (GET /user, PUT /user, POST /logout), with HS256 tokens.

type server struct {
	secret []byte
	issuer string
	ttl    time.Duration

	mu        sync.Mutex
	consumed  map[string]bool // recovery jti -> already used to establish
	revoked   map[string]bool // jti -> signed out
	passwords map[string]string
}

func main() {
	port := getenv("PORT", "5557")

	s := &server{
		secret:    []byte(getenv("SECRET", "dev-secret-not-for-production")),
		issuer:    getenv("ISSUER", "http://devidp:5557"),
		ttl:       getenvDuration("TTL", 30*time.Minute),
		consumed:  make(map[string]bool),
		revoked:   make(map[string]bool),
		passwords: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /recovery-link", s.handleRecoveryLink)
	mux.HandleFunc("GET /user", s.handleGetUser)
	mux.HandleFunc("PUT /user", s.handlePutUser)
	mux.HandleFunc("POST /logout", s.handleLogout)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("devidp listening on :%s (iss=%s ttl=%s)", port, s.issuer, s.ttl)
	log.Fatal(srv.ListenAndServe())
}

// handleRecoveryLink mints a one-time recovery token:
//
//	GET /recovery-link?user_id=dev-user-1&redirect_to=http://localhost:3000/
func (s *server) handleRecoveryLink(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}
	redirectTo := r.URL.Query().Get("redirect_to")

	now := time.Now().UTC()
	jti := uuid.NewString()
	access, err := s.mint(userID, jti, now, map[string]any{"recovery": true})
	if err != nil {
		http.Error(w, "failed to mint token", http.StatusInternalServerError)
		return
	}
	refresh, err := s.mint(userID, uuid.NewString(), now, map[string]any{"refresh": true})
	if err != nil {
		http.Error(w, "failed to mint token", http.StatusInternalServerError)
		return
	}

	fragment := url.Values{}
	fragment.Set("access_token", access)
	fragment.Set("refresh_token", refresh)
	fragment.Set("type", "recovery")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"action_link":   redirectTo + "#" + fragment.Encode(),
		"expires_at":    now.Add(s.ttl).Unix(),
	})
}

func (s *server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	// Recovery tokens establish a session exactly once.
	if isTrue(claims["recovery"]) {
		jti, _ := claims["jti"].(string)
		s.mu.Lock()
		used := s.consumed[jti]
		s.consumed[jti] = true
		s.mu.Unlock()
		if used {
			writeAuthError(w, "recovery token already used")
			return
		}
	}

	sub, _ := claims["sub"].(string)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":    sub,
		"email": sub + "@dev.local",
	})
}

func (s *server) handlePutUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password == "" {
		http.Error(w, "missing password", http.StatusBadRequest)
		return
	}

	sub, _ := claims["sub"].(string)
	s.mu.Lock()
	s.passwords[sub] = body.Password
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"id": sub})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if jti, _ := claims["jti"].(string); jti != "" {
		s.mu.Lock()
		s.revoked[jti] = true
		s.mu.Unlock()
	}
	w.WriteHeader(http.StatusNoContent)
}

// authenticate verifies the bearer token and rejects revoked sessions. On
// failure it writes the 401 and returns ok=false.
func (s *server) authenticate(w http.ResponseWriter, r *http.Request) (jwt.MapClaims, bool) {
	authz := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		writeAuthError(w, "missing bearer token")
		return nil, false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))

	tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(s.issuer))
	if err != nil || !tok.Valid {
		writeAuthError(w, "invalid or expired token")
		return nil, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		writeAuthError(w, "invalid token claims")
		return nil, false
	}

	if jti, _ := claims["jti"].(string); jti != "" {
		s.mu.Lock()
		revoked := s.revoked[jti]
		s.mu.Unlock()
		if revoked {
			writeAuthError(w, "session signed out")
			return nil, false
		}
	}
	return claims, true
}

func (s *server) mint(sub, jti string, now time.Time, extra map[string]any) (string, error) {
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": sub,
		"jti": jti,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}

func isTrue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
