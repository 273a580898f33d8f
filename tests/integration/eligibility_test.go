//go:build integration
// +build integration

// Package integration provides end-to-end tests for the eligibility
// determination engine over its HTTP surface.
//
// These tests verify the COMPLETE pipeline:
//
//	Chat message → Intent → Extraction → Validation → Reason engine → Payload
//
// Run with: go test -tags=integration -v ./tests/integration/...
//
// The engine must be running and loaded with the sample configuration
// and data sources described in the repository's config/ and data/
// defaults, including:
//
//   - 1234567890 present in the eligible accounts source
//   - 9999999999 present in the reasons source with a firing rule
//   - 0000000000 absent from both sources
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"
)

func baseURL() string {
	if url := os.Getenv("ELIGIBILITY_TEST_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

type checkRequest struct {
	Message string `json:"message"`
}

type accountResult struct {
	AccountNumber     string `json:"account_number"`
	AccountNumberHash string `json:"account_number_hash"`
	Status            string `json:"status"`
	Reasons           []struct {
		Code              string `json:"code"`
		ExplanationStatus string `json:"explanation_status"`
	} `json:"reasons"`
}

type checkResponse struct {
	RequestID    string          `json:"request_id"`
	Status       string          `json:"status,omitempty"`
	ErrorType    string          `json:"error_type,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Accounts     []accountResult `json:"accounts"`
	Summary      struct {
		TotalAccounts int `json:"total_accounts"`
	} `json:"summary"`
}

func check(t *testing.T, message string) (int, *checkResponse) {
	t.Helper()

	body, err := json.Marshal(checkRequest{Message: message})
	if err != nil {
		t.Fatal(err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(baseURL()+"/eligibility", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v (is the engine running at %s?)", err, baseURL())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}

	var payload checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return resp.StatusCode, &payload
}

func TestHealth(t *testing.T) {
	resp, err := http.Get(baseURL() + "/health")
	if err != nil {
		t.Fatalf("engine not reachable at %s: %v", baseURL(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestEligibleAccountInquiry(t *testing.T) {
	code, payload := check(t, "Is account 1234567890 eligible?")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if payload.Status != "" {
		t.Fatalf("expected success payload, got %s: %s", payload.ErrorType, payload.ErrorMessage)
	}
	if len(payload.Accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(payload.Accounts))
	}
	if payload.Accounts[0].Status != "ELIGIBLE" {
		t.Errorf("expected ELIGIBLE, got %s", payload.Accounts[0].Status)
	}
	if payload.Accounts[0].AccountNumberHash == "" {
		t.Error("expected account hash in payload")
	}
}

func TestIneligibleAccountInquiry(t *testing.T) {
	code, payload := check(t, "Why is 9999999999 excluded from the loan limit?")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(payload.Accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(payload.Accounts))
	}
	if payload.Accounts[0].Status != "NOT_ELIGIBLE" {
		t.Errorf("expected NOT_ELIGIBLE, got %s", payload.Accounts[0].Status)
	}
	if len(payload.Accounts[0].Reasons) == 0 {
		t.Error("expected at least one reason")
	}
}

func TestUnknownAccountInquiry(t *testing.T) {
	code, payload := check(t, "check eligibility for 0000000000")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if payload.Accounts[0].Status != "CANNOT_CONFIRM" {
		t.Errorf("expected CANNOT_CONFIRM, got %s", payload.Accounts[0].Status)
	}
}

func TestNonInquiryMessage(t *testing.T) {
	code, payload := check(t, "What's the weather today?")
	if code != http.StatusNoContent {
		t.Fatalf("expected 204 for a non-eligibility message, got %d", code)
	}
	if payload != nil {
		t.Errorf("expected empty body, got %+v", payload)
	}
}

func TestNoAccountsErrorPayload(t *testing.T) {
	code, payload := check(t, "Check 123456789")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if payload.Status != "ERROR" || payload.ErrorType != "no_accounts_found" {
		t.Errorf("expected no_accounts_found error payload, got %+v", payload)
	}
}
