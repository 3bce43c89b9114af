package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/martinsuchenak/avtrackd/internal/log"
	"github.com/martinsuchenak/avtrackd/internal/model"
	"github.com/martinsuchenak/avtrackd/internal/storage"
)

// listBookings handles GET /api/bookings
func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	if h.bookings == nil {
		h.writeError(w, http.StatusNotImplemented, "bookings not supported by storage backend")
		return
	}

	filter := &model.BookingFilter{
		ProjectID:  r.URL.Query().Get("project_id"),
		Technician: r.URL.Query().Get("technician"),
		Date:       r.URL.Query().Get("date"),
	}

	bookings, err := h.bookings.ListBookings(filter)
	if err != nil {
		log.Error("Failed to list bookings", "error", err)
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, bookings)
}

// getBooking handles GET /api/bookings/{id}
func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	if h.bookings == nil {
		h.writeError(w, http.StatusNotImplemented, "bookings not supported by storage backend")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "booking ID required")
		return
	}

	booking, err := h.bookings.GetBooking(id)
	if err != nil {
		if errors.Is(err, storage.ErrBookingNotFound) {
			h.writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		log.Error("Failed to get booking", "error", err, "id", id)
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) validateBooking(booking *model.Booking) string {
	if booking.ProjectID == "" {
		return "project_id is required"
	}
	if booking.Technician == "" {
		return "technician is required"
	}
	if _, err := time.Parse("2006-01-02", booking.Date); err != nil {
		return "date must be YYYY-MM-DD"
	}
	if !model.ValidSlot(booking.Slot) {
		return "slot must be one of: " + strings.Join(model.BookingSlots, ", ")
	}
	return ""
}

// createBooking handles POST /api/bookings
func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	if h.bookings == nil {
		h.writeError(w, http.StatusNotImplemented, "bookings not supported by storage backend")
		return
	}

	var booking model.Booking
	if err := json.NewDecoder(r.Body).Decode(&booking); err != nil {
		log.Warn("Invalid booking creation request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := h.validateBooking(&booking); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := h.storage.GetProject(booking.ProjectID); err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			h.writeError(w, http.StatusBadRequest, "project not found: "+booking.ProjectID)
			return
		}
		h.internalError(w, err)
		return
	}

	if booking.ID == "" {
		booking.ID = generateID()
	}

	if err := h.bookings.CreateBooking(&booking); err != nil {
		if errors.Is(err, storage.ErrSlotTaken) {
			log.Warn("Booking rejected - slot taken", "date", booking.Date,
				"slot", booking.Slot, "technician", booking.Technician)
			h.writeError(w, http.StatusConflict,
				booking.Technician+" is already booked for "+booking.Date+" "+booking.Slot)
			return
		}
		log.Error("Failed to create booking", "error", err)
		h.internalError(w, err)
		return
	}

	log.Info("Booking created", "id", booking.ID, "date", booking.Date,
		"slot", booking.Slot, "technician", booking.Technician)
	h.writeJSON(w, http.StatusCreated, booking)
}

// updateBooking handles PUT /api/bookings/{id}
func (h *Handler) updateBooking(w http.ResponseWriter, r *http.Request) {
	if h.bookings == nil {
		h.writeError(w, http.StatusNotImplemented, "bookings not supported by storage backend")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "booking ID required")
		return
	}

	var booking model.Booking
	if err := json.NewDecoder(r.Body).Decode(&booking); err != nil {
		log.Warn("Invalid booking update request body", "error", err, "id", id)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	booking.ID = id

	if msg := h.validateBooking(&booking); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.bookings.UpdateBooking(&booking); err != nil {
		if errors.Is(err, storage.ErrBookingNotFound) {
			h.writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		if errors.Is(err, storage.ErrSlotTaken) {
			h.writeError(w, http.StatusConflict,
				booking.Technician+" is already booked for "+booking.Date+" "+booking.Slot)
			return
		}
		log.Error("Failed to update booking", "error", err, "id", id)
		h.internalError(w, err)
		return
	}

	log.Info("Booking updated", "id", id)
	h.writeJSON(w, http.StatusOK, booking)
}

// deleteBooking handles DELETE /api/bookings/{id}
func (h *Handler) deleteBooking(w http.ResponseWriter, r *http.Request) {
	if h.bookings == nil {
		h.writeError(w, http.StatusNotImplemented, "bookings not supported by storage backend")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "booking ID required")
		return
	}

	if err := h.bookings.DeleteBooking(id); err != nil {
		if errors.Is(err, storage.ErrBookingNotFound) {
			h.writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		log.Error("Failed to delete booking", "error", err, "id", id)
		h.internalError(w, err)
		return
	}

	log.Info("Booking deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
