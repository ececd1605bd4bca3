// Package calsync mirrors schedules to an external calendar service over a
// small JSON/HTTP event API. It satisfies the schedule service's provider
// contract; a nil client means mirroring is off.
package calsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/weihung/schedagent/internal/schedule"
)

// Client talks to the calendar service's /v1/events endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New builds a client for the calendar service at baseURL. apiKey may be
// empty for services without auth.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// event is the wire form of a mirrored schedule.
type event struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
	Timezone    string    `json:"timezone,omitempty"`
}

func toEvent(s *schedule.Schedule) event {
	return event{
		Summary:     s.Title,
		Description: s.Description,
		Location:    s.Location,
		Start:       s.StartTime,
		End:         s.EndTime,
		AllDay:      s.AllDay,
		Timezone:    s.Timezone,
	}
}

// CreateEvent mirrors a new schedule and returns the service's event id.
func (c *Client) CreateEvent(ctx context.Context, s *schedule.Schedule) (string, error) {
	body, err := c.request(ctx, http.MethodPost, "/v1/events", toEvent(s))
	if err != nil {
		return "", err
	}
	var created event
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("parse create response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("calendar service returned no event id")
	}
	return created.ID, nil
}

// UpdateEvent rewrites a previously mirrored event.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, s *schedule.Schedule) error {
	_, err := c.request(ctx, http.MethodPut, "/v1/events/"+eventID, toEvent(s))
	return err
}

// DeleteEvent removes a mirrored event. A 404 from the service is treated as
// already deleted.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	_, err := c.request(ctx, http.MethodDelete, "/v1/events/"+eventID, nil)
	if err != nil && isNotFoundErr(err) {
		return nil
	}
	return err
}

type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("calendar API error (%d): %s", e.status, e.message)
}

func isNotFoundErr(err error) bool {
	ae, ok := err.(*apiError)
	return ok && ae.status == http.StatusNotFound
}

func (c *Client) request(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := string(respBody)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return nil, &apiError{status: resp.StatusCode, message: msg}
	}

	return respBody, nil
}

var _ schedule.SyncProvider = (*Client)(nil)
