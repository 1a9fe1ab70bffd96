// Package httpinvoke calls named server-side functions over HTTP with a
// bearer credential, implementing the funcinvoke.Invoker port.
package httpinvoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wayfarer-app/account-api/internal/platform/config"
)

type Invoker struct {
	cfg    config.FunctionsConfig
	client *http.Client
}

func New(cfg config.FunctionsConfig) *Invoker {
	return NewWithOptions(cfg, nil)
}

func NewWithOptions(cfg config.FunctionsConfig, httpClient *http.Client) *Invoker {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &Invoker{
		cfg:    cfg,
		client: httpClient,
	}
}

// Invoke POSTs to the named function. Any non-2xx response is a failure;
// the server's message is surfaced so the workflow can report it.
func (i *Invoker) Invoke(ctx context.Context, name string, bearerToken string) error {
	url := strings.TrimRight(i.cfg.BaseURL, "/") + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("invoke %s: %w", name, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("invoke %s: %s", name, errorMessage(resp))
}

func errorMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(raw) == 0 {
		return resp.Status
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return resp.Status
}
