// Package gateway implements the payment provider integration over its
// hosted-checkout HTTP API. The provider renders its own payment UI; this
// client creates a checkout session and then watches it until the user
// completes or dismisses it.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/checkout-core/internal/domain/payment"
)

// Config holds provider connection settings.
type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	// PollInterval is how often a presented session is checked for a
	// terminal status. Defaults to 2s.
	PollInterval time.Duration
	// Timeout bounds individual HTTP calls, not the user's session.
	Timeout time.Duration
}

// Client talks to the provider's REST API and adapts it to the
// payment.Gateway seam.
type Client struct {
	cfg  Config
	http *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

var _ payment.Gateway = (*Client)(nil)

// NewClient creates a provider client. No network traffic happens until
// Load.
func NewClient(cfg Config) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Load authenticates against the provider and caches the access token.
func (c *Client) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.expires) {
		return nil
	}
	return c.refreshToken(ctx)
}

// refreshToken must be called with c.mu held.
func (c *Client) refreshToken(ctx context.Context) error {
	auth := base64.StdEncoding.EncodeToString([]byte(c.cfg.KeyID + ":" + c.cfg.KeySecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/auth/token",
		bytes.NewBufferString("grant_type=client_credentials"))
	if err != nil {
		return errors.Wrap(err, "create token request")
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "request token")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return errors.Wrap(err, "decode token response")
	}
	if body.AccessToken == "" {
		return errors.New("token response missing access_token")
	}

	c.token = body.AccessToken
	// Refresh a minute early so in-flight sessions never race expiry.
	c.expires = time.Now().Add(time.Duration(body.ExpiresIn)*time.Second - time.Minute)
	return nil
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return "Bearer " + c.token
}

type checkoutSession struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	PaymentRef string `json:"payment_ref"`
}

// Present creates a hosted checkout session and returns a channel that
// delivers the session's terminal event. The channel receives exactly one
// Event and is then closed; watching stops when ctx is cancelled.
func (c *Client) Present(ctx context.Context, opts payment.Options) (<-chan payment.Event, error) {
	session, err := c.createSession(ctx, opts)
	if err != nil {
		return nil, err
	}

	events := make(chan payment.Event, 1)
	go c.watch(ctx, session.ID, events)
	return events, nil
}

func (c *Client) createSession(ctx context.Context, opts payment.Options) (*checkoutSession, error) {
	payload, err := json.Marshal(map[string]any{
		"reference":      opts.OrderID,
		"amount":         opts.Amount.String(),
		"currency":       opts.Currency,
		"customer_name":  opts.CustomerName,
		"customer_email": opts.CustomerEmail,
		"customer_phone": opts.CustomerPhone,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal session request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/checkout/sessions", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "create session request")
	}
	req.Header.Set("Authorization", c.bearer())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "create checkout session")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("session endpoint returned %d: %s", resp.StatusCode, body)
	}

	var session checkoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, errors.Wrap(err, "decode session response")
	}
	if session.ID == "" {
		return nil, errors.New("session response missing id")
	}
	return &session, nil
}

// watch polls the session until the provider reports a terminal status,
// then emits the corresponding event and closes the channel. A cancelled
// context closes the channel without an event, which the orchestrator
// reads as a dismissal.
func (c *Client) watch(ctx context.Context, sessionID string, events chan<- payment.Event) {
	defer close(events)

	lg := zctx.From(ctx).With(zap.String("session_id", sessionID))
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		session, err := c.getSession(ctx, sessionID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			lg.Warn("poll checkout session", zap.Error(err))
			continue
		}

		switch session.Status {
		case "completed":
			events <- payment.Event{Kind: payment.EventCaptured, PaymentRef: session.PaymentRef}
			return
		case "cancelled", "expired":
			events <- payment.Event{Kind: payment.EventDismissed}
			return
		}
	}
}

func (c *Client) getSession(ctx context.Context, sessionID string) (*checkoutSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/v1/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create poll request")
	}
	req.Header.Set("Authorization", c.bearer())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "poll checkout session")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("session poll returned %d", resp.StatusCode)
	}

	var session checkoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, errors.Wrap(err, "decode poll response")
	}
	return &session, nil
}
