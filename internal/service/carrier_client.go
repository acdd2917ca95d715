package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/api"
	"github.com/qhosting/cloudsms/internal/config"
	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/sms"
)

const carrierCodeAccepted = "0"

type carrierRecipient struct {
	MSISDN string `json:"msisdn"`
}

type carrierRequest struct {
	Message   string             `json:"message"`
	Tpoa      string             `json:"tpoa,omitempty"`
	Recipient []carrierRecipient `json:"recipient"`
	SubID     string             `json:"subid"`
	Test      string             `json:"test,omitempty"`
	UCS2      string             `json:"ucs2,omitempty"`
}

type carrierResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	SubID   string `json:"subid"`
}

type carrierClient struct {
	cfg            *config.CarrierConfig
	httpClient     *http.Client
	logger         *zap.Logger
	circuitBreaker *CircuitBreaker
}

func NewCarrierClient(cfg *config.CarrierConfig, logger *zap.Logger) CarrierClient {
	return &carrierClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		logger:         logger,
		circuitBreaker: NewCircuitBreaker(&cfg.CircuitBreaker, logger),
	}
}

// Submit posts msg to the carrier through the circuit breaker.
func (c *carrierClient) Submit(ctx context.Context, msg *models.Message) (string, error) {
	subID := uuid.New().String()

	var externalID string
	err := c.circuitBreaker.Execute(ctx, func() error {
		id, err := c.send(ctx, msg, subID)
		if err != nil {
			return err
		}
		externalID = id
		return nil
	})
	if err != nil {
		requests, failures := c.circuitBreaker.GetCounts()
		c.logger.Warn("Carrier submission failed",
			zap.Int64("message_id", msg.ID),
			zap.Error(err),
			zap.String("circuitBreakerState", string(c.circuitBreaker.GetState())),
			zap.Uint32("totalRequests", requests),
			zap.Uint32("totalFailures", failures))
		return "", err
	}

	return externalID, nil
}

func (c *carrierClient) send(ctx context.Context, msg *models.Message, subID string) (string, error) {
	reqBody := carrierRequest{
		Message:   msg.RenderedText,
		Tpoa:      c.cfg.Sender,
		Recipient: []carrierRecipient{{MSISDN: normalizeMSISDN(msg.Phone)}},
		SubID:     subID,
	}
	if c.cfg.TestMode {
		reqBody.Test = "1"
	}
	if msg.Encoding == string(sms.Unicode) {
		reqBody.UCS2 = "1"
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransientCarrier, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", zap.Error(err))
		}
	}()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: unexpected status code: %d", ErrTransientCarrier, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status code %d: %s", ErrCarrierRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var carrierResp carrierResponse
	if err := json.NewDecoder(resp.Body).Decode(&carrierResp); err != nil {
		// Accepted at HTTP level; keep our own subid so the report still matches.
		c.logger.Warn("Failed to decode carrier response",
			zap.Int64("message_id", msg.ID),
			zap.Error(err))
		return subID, nil
	}

	if carrierResp.Code != carrierCodeAccepted {
		return "", fmt.Errorf("%w: code %s: %s", ErrCarrierRejected, carrierResp.Code, carrierResp.Message)
	}

	if carrierResp.SubID != "" {
		return carrierResp.SubID, nil
	}
	return subID, nil
}

func (c *carrierClient) GetCircuitBreakerStatus() (state api.HealthResponseCircuitBreakerState, requests uint32, failures uint32) {
	state = c.circuitBreaker.GetState()
	requests, failures = c.circuitBreaker.GetCounts()
	return
}

// normalizeMSISDN strips everything but digits; the carrier expects the
// international number without a leading plus.
func normalizeMSISDN(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

