// Package identityhttp adapts a GoTrue-style identity provider's REST API
// to the identity.Service port.
//
// The adapter owns the current session for the process: this service fronts
// a single active client, so one session slot is the whole model.
package identityhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/wayfarer-app/account-api/internal/domain"
	identityport "github.com/wayfarer-app/account-api/internal/ports/out/identity"
	"github.com/wayfarer-app/account-api/internal/platform/config"
)

type Client struct {
	cfg    config.IdentityConfig
	client *http.Client

	mu   sync.Mutex
	sess domain.Session
}

func New(cfg config.IdentityConfig) *Client {
	return NewWithOptions(cfg, nil)
}

func NewWithOptions(cfg config.IdentityConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &Client{
		cfg:    cfg,
		client: httpClient,
	}
}

// EstablishSession validates the one-shot access token by fetching the user
// it identifies, then installs the token pair as the current session. The
// provider is the sole judge of token validity.
func (c *Client) EstablishSession(ctx context.Context, accessToken, refreshToken string) (domain.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/user", accessToken, nil)
	if err != nil {
		return domain.Session{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Session{}, fmt.Errorf("identity request: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domain.Session{}, identityport.ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Session{}, fmt.Errorf("identity: %s", readErrorMessage(resp))
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil || user.ID == "" {
		return domain.Session{}, identityport.ErrInvalidToken
	}

	sess := domain.Session{
		UserID:       domain.UserID(user.ID),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()
	return sess, nil
}

func (c *Client) UpdateCredential(ctx context.Context, newPassword string) error {
	sess := c.currentSession()
	if sess.IsZero() {
		return identityport.ErrNoSession
	}

	body, err := json.Marshal(map[string]string{"password": newPassword})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPut, "/user", sess.AccessToken, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return identityport.ErrNoSession
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s", readErrorMessage(resp))
	}
	return nil
}

func (c *Client) CurrentSession(ctx context.Context) (domain.Session, error) {
	_ = ctx
	return c.currentSession(), nil
}

// SignOut revokes the session with the provider and always drops it
// locally: a terminated account must not keep working tokens around even
// when the revocation round-trip fails to confirm.
func (c *Client) SignOut(ctx context.Context) error {
	sess := c.currentSession()
	if sess.IsZero() {
		return nil
	}

	defer func() {
		c.mu.Lock()
		c.sess = domain.Session{}
		c.mu.Unlock()
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/logout", sess.AccessToken, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}
	defer drainAndClose(resp.Body)

	// 401 means the provider already considers the token dead; that is a
	// successful sign-out from the caller's point of view.
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("%s", readErrorMessage(resp))
	}
	return nil
}

func (c *Client) currentSession() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

func (c *Client) newRequest(ctx context.Context, method, path, bearer string, body io.Reader) (*http.Request, error) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if c.cfg.APIKey != "" {
		req.Header.Set("apikey", c.cfg.APIKey)
	}
	return req, nil
}

// readErrorMessage extracts the provider's error message so it can be shown
// to the user verbatim.
func readErrorMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(raw) == 0 {
		return resp.Status
	}
	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, m := range []string{payload.Msg, payload.Message, payload.ErrorDescription} {
			if m != "" {
				return m
			}
		}
	}
	return resp.Status
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
