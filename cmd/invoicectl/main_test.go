package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type capturedRequest struct {
	method string
	path   string
	body   map[string]string
}

func newAPIServer(t *testing.T, status int, response string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &captured.body)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSendInvoiceEmailCommand(t *testing.T) {
	var captured capturedRequest
	srv := newAPIServer(t, http.StatusOK, `{"success":true}`, &captured)

	out, _, err := run(t, "--base-url", srv.URL, "send-invoice-email", "--invoice-id", "inv-1", "--message", "Thanks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.method != http.MethodPost || captured.path != "/send-invoice-email" {
		t.Fatalf("unexpected request %s %s", captured.method, captured.path)
	}
	if captured.body["invoiceId"] != "inv-1" || captured.body["message"] != "Thanks" {
		t.Fatalf("unexpected body %v", captured.body)
	}
	if !strings.Contains(out, `"success": true`) {
		t.Fatalf("expected pretty printed result, got %s", out)
	}
}

func TestSendReceiptEmailCommandReportsAPIError(t *testing.T) {
	var captured capturedRequest
	srv := newAPIServer(t, http.StatusBadRequest,
		`{"error":{"code":"PRECONDITION_FAILED","message":"Invoice is not paid yet"}}`, &captured)

	_, errOut, err := run(t, "--base-url", srv.URL, "send-receipt-email", "--invoice-id", "inv-2")
	if err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
	if !strings.Contains(errOut, "Invoice is not paid yet") {
		t.Fatalf("expected error envelope on stderr, got %q", errOut)
	}
	if captured.path != "/send-receipt-email" || captured.body["invoiceId"] != "inv-2" {
		t.Fatalf("unexpected request %s %v", captured.path, captured.body)
	}
}

func TestTransactionsCommand(t *testing.T) {
	var captured capturedRequest
	srv := newAPIServer(t, http.StatusOK, `{"transactions":[]}`, &captured)

	out, _, err := run(t, "--base-url", srv.URL+"/", "transactions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.method != http.MethodGet || captured.path != "/transactions" {
		t.Fatalf("unexpected request %s %s", captured.method, captured.path)
	}
	if !strings.Contains(out, `"transactions": []`) {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestBaseURLFromEnvironment(t *testing.T) {
	var captured capturedRequest
	srv := newAPIServer(t, http.StatusOK, `{"transactions":[]}`, &captured)
	t.Setenv(envAPIURL, srv.URL)

	if _, _, err := run(t, "transactions"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.path != "/transactions" {
		t.Fatalf("expected request against env base url")
	}
}

func TestMissingInvoiceIDFlag(t *testing.T) {
	if _, _, err := run(t, "send-receipt-email"); err == nil {
		t.Fatalf("expected required flag error")
	}
}
