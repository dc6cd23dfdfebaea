package bootstrap_test

import (
	"io"
	"net/http"
	"testing"
)

// assertStatus verifies the HTTP status code
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}

// assertBody reads and closes the response body and compares it to expected
func assertBody(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	defer resp.Body.Close()

	if string(body) != expected {
		t.Errorf("Expected body %q, got %q", expected, string(body))
	}
}
