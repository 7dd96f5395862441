// Package webhook is the client for the remote transaction ingestion
// endpoint (POST /smswebhook).
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spendtrail/spendtraild/internal/location"
	"go.uber.org/zap"
)

// Submission is the wire payload accepted by the ingestion endpoint.
// ReceivedAt marshals as an ISO-8601 timestamp; Lat/Lng may be null.
type Submission struct {
	Message    string    `json:"message"`
	Sender     string    `json:"sender"`
	ReceivedAt time.Time `json:"receivedAt"`
	Lat        *float64  `json:"lat"`
	Lng        *float64  `json:"lng"`
}

// WithCoordinates returns a copy of the submission carrying pos.
func (s Submission) WithCoordinates(pos location.Coordinates) Submission {
	s.Lat = pos.Lat
	s.Lng = pos.Lng
	return s
}

// Transaction is the created transaction returned on success. Only the
// fields the pipeline cares about are decoded.
type Transaction struct {
	ID       string  `json:"_id"`
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
}

type submitResponse struct {
	Transaction *Transaction `json:"transaction"`
	Error       string       `json:"error"`
}

// StatusError reports a non-2xx response from the remote API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d: %s", e.Code, e.Body)
}

// Submitter submits one transaction payload to the remote API.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (*Transaction, error)
}

// Client talks to the remote transaction API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a webhook client. A nil httpClient gets a default with
// the given timeout applied.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Submit posts one submission. Transport errors, non-2xx responses and
// malformed response bodies are all returned as errors; the caller treats
// any error as a failed item.
func (c *Client) Submit(ctx context.Context, sub Submission) (*Transaction, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}

	endpoint := c.baseURL + "/smswebhook"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit to webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var decoded submitResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("decode webhook response: %w", err)
	}
	if decoded.Transaction == nil {
		// Some deployments return the transaction at the top level.
		var txn Transaction
		if err := json.Unmarshal(respBody, &txn); err != nil {
			return nil, fmt.Errorf("decode webhook response: %w", err)
		}
		decoded.Transaction = &txn
	}

	c.logger.Debug("submission accepted",
		zap.String("sender", sub.Sender),
		zap.String("txn_id", decoded.Transaction.ID),
	)
	return decoded.Transaction, nil
}
