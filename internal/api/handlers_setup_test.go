package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/martinsuchenak/avtrackd/internal/netplan"
)

// setupTestHandler creates a new Handler with mock storage
func setupTestHandler() (*Handler, *mockStorage) {
	mock := newMockStorage()
	return NewHandler(mock, netplan.DefaultRegistry()), mock
}

func TestHandler_RegisterRoutes(t *testing.T) {
	handler, _ := setupTestHandler()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	defer server.Close()

	// Test list projects
	resp, err := http.Get(server.URL + "/api/projects")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	// Test search
	resp, err = http.Get(server.URL + "/api/search?q=test")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestHandler_GetAddressPlan(t *testing.T) {
	handler, _ := setupTestHandler()

	req := httptest.NewRequest("GET", "/api/address-plan", nil)
	w := httptest.NewRecorder()
	handler.getAddressPlan(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var entries []netplan.PoolEntry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(entries) == 0 {
		t.Fatal("Expected pool entries in the address plan")
	}
	if last := entries[len(entries)-1]; last.Key != "other" {
		t.Errorf("Expected catch-all entry last, got %q", last.Key)
	}

	found := false
	for _, e := range entries {
		if e.Key == "camera" && e.Subnet == "192.168.220" && e.VLANID == 20 {
			found = true
		}
	}
	if !found {
		t.Error("Expected camera pool entry in the address plan")
	}
}
