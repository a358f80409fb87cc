package seating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrLayoutNotFound   = errors.New("layout not found")
	ErrUnexpectedStatus = errors.New("unexpected status from seating service")
	ErrEmptySeatList    = errors.New("no seat numbers given")
)

// Config holds seating service client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the external seating service.
type Client struct {
	http *resty.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &Client{http: httpClient}
}

type tokenKey struct{}

// ContextWithToken attaches the caller's bearer token so it is forwarded to
// the seating service.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if token, ok := ctx.Value(tokenKey{}).(string); ok && token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// GetLayout returns the opaque layout JSON for an event. A 404 or an empty
// payload is reported as ErrLayoutNotFound.
func (c *Client) GetLayout(ctx context.Context, eventID string) (string, error) {
	resp, err := c.request(ctx).
		SetPathParam("eventId", eventID).
		Get("/layouts/{eventId}")
	if err != nil {
		return "", fmt.Errorf("failed to fetch layout: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return "", ErrLayoutNotFound
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}

	var body LayoutResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("failed to decode layout response: %w", err)
	}
	if body.LayoutJSON == "" {
		return "", ErrLayoutNotFound
	}

	return body.LayoutJSON, nil
}

// SaveLayout persists the layout document for an event.
func (c *Client) SaveLayout(ctx context.Context, eventID, layoutJSON string) error {
	resp, err := c.request(ctx).
		SetBody(SaveLayoutRequest{EventID: eventID, LayoutJSON: layoutJSON}).
		Post("/layouts")
	if err != nil {
		return fmt.Errorf("failed to save layout: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}
	return nil
}

// Reserve asks the seating service to hold seats. Only transport failures
// are returned as errors.
func (c *Client) Reserve(ctx context.Context, eventID string, seatNumbers []string) (*ReserveOutcome, error) {
	if len(seatNumbers) == 0 {
		return nil, ErrEmptySeatList
	}

	resp, err := c.request(ctx).
		SetPathParam("eventId", eventID).
		SetBody(SeatNumbersRequest{SeatNumbers: seatNumbers}).
		Post("/events/{eventId}/reserve")
	if err != nil {
		return nil, fmt.Errorf("failed to reserve seats: %w", err)
	}

	outcome := &ReserveOutcome{StatusCode: resp.StatusCode()}
	var body ReserveResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		outcome.DecodeErr = err
	} else {
		outcome.Body = &body
	}
	return outcome, nil
}

// Confirm finalizes held seats as booked after payment.
func (c *Client) Confirm(ctx context.Context, eventID string, seatNumbers []string) (*ConfirmResponse, error) {
	if len(seatNumbers) == 0 {
		return nil, ErrEmptySeatList
	}

	resp, err := c.request(ctx).
		SetPathParam("eventId", eventID).
		SetBody(SeatNumbersRequest{SeatNumbers: seatNumbers}).
		Post("/events/{eventId}/confirm")
	if err != nil {
		return nil, fmt.Errorf("failed to confirm seats: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode())
	}

	var body ConfirmResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to decode confirm response: %w", err)
	}
	if body.Success != nil && !*body.Success {
		return nil, fmt.Errorf("seating service refused confirmation: %s", body.Message)
	}
	return &body, nil
}
