package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/higujral/zcollabz/pkg/types"
)

// apiClient calls the invoicing HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError carries a non-2xx response body.
type apiError struct {
	Status int
	Body   types.ErrorEnvelope
	Raw    string
}

func (e *apiError) Error() string {
	if e.Body.Error.Code != "" {
		return fmt.Sprintf("api returned %d: %s: %s", e.Status, e.Body.Error.Code, e.Body.Error.Message)
	}
	return fmt.Sprintf("api returned %d: %s", e.Status, e.Raw)
}

func (c *apiClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &apiError{Status: resp.StatusCode, Raw: strings.TrimSpace(string(raw))}
		_ = json.Unmarshal(raw, &apiErr.Body)
		return raw, apiErr
	}
	return raw, nil
}

func (c *apiClient) SendInvoiceEmail(ctx context.Context, invoiceID, message string) ([]byte, error) {
	payload := map[string]string{"invoiceId": invoiceID}
	if message != "" {
		payload["message"] = message
	}
	return c.do(ctx, http.MethodPost, "/send-invoice-email", payload)
}

func (c *apiClient) SendReceiptEmail(ctx context.Context, invoiceID string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/send-receipt-email", map[string]string{"invoiceId": invoiceID})
}

func (c *apiClient) Transactions(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/transactions", nil)
}
