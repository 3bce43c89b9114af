package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/martinsuchenak/avtrackd/internal/model"
)

func TestHandler_CreateBooking(t *testing.T) {
	handler, _ := setupTestHandler()
	project := createTestProjectRequest(t, handler, "Install Week")

	bookingJSON := fmt.Sprintf(`{
		"project_id": "%s",
		"date": "2026-09-14",
		"slot": "am",
		"technician": "Priya",
		"notes": "First fix"
	}`, project.ID)

	req := httptest.NewRequest("POST", "/api/bookings", bytes.NewReader([]byte(bookingJSON)))
	w := httptest.NewRecorder()
	handler.createBooking(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}

	var booking model.Booking
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if booking.ID == "" {
		t.Error("Expected booking ID to be generated")
	}
	if booking.Slot != "am" {
		t.Errorf("Expected slot 'am', got %q", booking.Slot)
	}
}

func TestHandler_CreateBookingSlotTaken(t *testing.T) {
	handler, _ := setupTestHandler()
	projectA := createTestProjectRequest(t, handler, "Site A")
	projectB := createTestProjectRequest(t, handler, "Site B")

	first := fmt.Sprintf(`{"project_id": "%s", "date": "2026-09-14", "slot": "pm", "technician": "Marco"}`, projectA.ID)
	req := httptest.NewRequest("POST", "/api/bookings", bytes.NewReader([]byte(first)))
	w := httptest.NewRecorder()
	handler.createBooking(w, req)
	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Result().StatusCode)
	}

	// Same technician, date and slot on a different project still collides
	second := fmt.Sprintf(`{"project_id": "%s", "date": "2026-09-14", "slot": "pm", "technician": "Marco"}`, projectB.ID)
	req = httptest.NewRequest("POST", "/api/bookings", bytes.NewReader([]byte(second)))
	w = httptest.NewRecorder()
	handler.createBooking(w, req)
	if w.Result().StatusCode != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Result().StatusCode)
	}

	// A different slot on the same day is fine
	third := fmt.Sprintf(`{"project_id": "%s", "date": "2026-09-14", "slot": "evening", "technician": "Marco"}`, projectB.ID)
	req = httptest.NewRequest("POST", "/api/bookings", bytes.NewReader([]byte(third)))
	w = httptest.NewRecorder()
	handler.createBooking(w, req)
	if w.Result().StatusCode != http.StatusCreated {
		t.Errorf("Expected status 201 for free slot, got %d", w.Result().StatusCode)
	}
}

func TestHandler_CreateBookingValidation(t *testing.T) {
	handler, _ := setupTestHandler()
	project := createTestProjectRequest(t, handler, "Booking Validation")

	tests := []struct {
		name string
		body string
	}{
		{"missing technician", fmt.Sprintf(`{"project_id": "%s", "date": "2026-09-14", "slot": "am"}`, project.ID)},
		{"bad date", fmt.Sprintf(`{"project_id": "%s", "date": "14/09/2026", "slot": "am", "technician": "T"}`, project.ID)},
		{"bad slot", fmt.Sprintf(`{"project_id": "%s", "date": "2026-09-14", "slot": "night", "technician": "T"}`, project.ID)},
		{"missing project", `{"date": "2026-09-14", "slot": "am", "technician": "T"}`},
		{"unknown project", `{"project_id": "missing", "date": "2026-09-14", "slot": "am", "technician": "T"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/bookings", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()
			handler.createBooking(w, req)

			if w.Result().StatusCode != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Result().StatusCode)
			}
		})
	}
}

func TestHandler_ListBookingsFilter(t *testing.T) {
	handler, mock := setupTestHandler()

	mock.bookings["b1"] = &model.Booking{ID: "b1", ProjectID: "p1", Date: "2026-09-14", Slot: "am", Technician: "Priya"}
	mock.bookings["b2"] = &model.Booking{ID: "b2", ProjectID: "p1", Date: "2026-09-15", Slot: "am", Technician: "Marco"}

	req := httptest.NewRequest("GET", "/api/bookings?technician=Priya", nil)
	w := httptest.NewRecorder()
	handler.listBookings(w, req)

	var bookings []model.Booking
	if err := json.NewDecoder(w.Result().Body).Decode(&bookings); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("Expected 1 booking, got %d", len(bookings))
	}
	if bookings[0].ID != "b1" {
		t.Errorf("Expected booking b1, got %s", bookings[0].ID)
	}
}

func TestHandler_UpdateBooking(t *testing.T) {
	handler, mock := setupTestHandler()
	project := createTestProjectRequest(t, handler, "Reschedule")

	mock.bookings["b1"] = &model.Booking{ID: "b1", ProjectID: project.ID, Date: "2026-09-14", Slot: "am", Technician: "Priya"}

	updateJSON := fmt.Sprintf(`{"project_id": "%s", "date": "2026-09-16", "slot": "pm", "technician": "Priya"}`, project.ID)
	req := httptest.NewRequest("PUT", "/api/bookings/b1", bytes.NewReader([]byte(updateJSON)))
	req.SetPathValue("id", "b1")
	w := httptest.NewRecorder()
	handler.updateBooking(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var booking model.Booking
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if booking.Date != "2026-09-16" || booking.Slot != "pm" {
		t.Errorf("Expected rescheduled booking, got %s %s", booking.Date, booking.Slot)
	}
}

func TestHandler_DeleteBooking(t *testing.T) {
	handler, mock := setupTestHandler()

	mock.bookings["b1"] = &model.Booking{ID: "b1", ProjectID: "p1", Date: "2026-09-14", Slot: "am", Technician: "Priya"}

	req := httptest.NewRequest("DELETE", "/api/bookings/b1", nil)
	req.SetPathValue("id", "b1")
	w := httptest.NewRecorder()
	handler.deleteBooking(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Result().StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/bookings/b1", nil)
	req.SetPathValue("id", "b1")
	w = httptest.NewRecorder()
	handler.getBooking(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Result().StatusCode)
	}
}
