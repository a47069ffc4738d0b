package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/winlab/netconflogger/internal/api"
	"github.com/winlab/netconflogger/internal/ingress"
)

type client struct {
	http       *http.Client
	ingressURL string
	apiURL     string
}

func newClient(opts *options) *client {
	return &client{
		http:       &http.Client{Timeout: opts.timeout},
		ingressURL: strings.TrimRight(opts.ingressURL, "/"),
		apiURL:     strings.TrimRight(opts.apiURL, "/"),
	}
}

// Send posts one or more newline-separated dumps and returns how many the
// daemon accepted.
func (c *client) Send(ctx context.Context, raw string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ingressURL+"/v1/events", strings.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return 0, responseError(resp)
	}

	var accepted ingress.AcceptedResponse
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return accepted.Accepted, nil
}

func (c *client) Status(ctx context.Context) (*api.StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/api/status", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var status api.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var e api.ErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, e.Error)
	}
	return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
}
