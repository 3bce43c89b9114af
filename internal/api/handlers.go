package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/martinsuchenak/avtrackd/internal/log"
	"github.com/martinsuchenak/avtrackd/internal/netplan"
	"github.com/martinsuchenak/avtrackd/internal/storage"
)

// Handler handles HTTP requests
type Handler struct {
	storage   storage.Storage
	bookings  storage.BookingStorage
	registry  *netplan.Registry
	allocator *netplan.Allocator
	checker   *netplan.Checker
}

// NewHandler creates a new API handler. The allocator and conflict checker
// are wired up when the storage backend can answer address queries.
func NewHandler(s storage.Storage, registry *netplan.Registry) *Handler {
	h := &Handler{storage: s, registry: registry}
	if addr, ok := s.(storage.AddressStorage); ok {
		h.allocator = netplan.NewAllocator(registry, addr)
		h.checker = netplan.NewChecker(addr)
	}
	if bk, ok := s.(storage.BookingStorage); ok {
		h.bookings = bk
	}
	return h
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Project CRUD
	mux.HandleFunc("GET /api/projects", h.listProjects)
	mux.HandleFunc("POST /api/projects", h.createProject)
	mux.HandleFunc("GET /api/projects/{id}", h.getProject)
	mux.HandleFunc("PUT /api/projects/{id}", h.updateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", h.deleteProject)
	mux.HandleFunc("GET /api/projects/{id}/devices", h.getProjectDevices)
	mux.HandleFunc("POST /api/projects/{id}/clone", h.cloneProject)

	// Address assignment
	mux.HandleFunc("GET /api/projects/{id}/next-address", h.getNextAddress)
	mux.HandleFunc("GET /api/projects/{id}/address-conflict", h.checkAddressConflict)

	// Device CRUD
	mux.HandleFunc("GET /api/devices", h.listDevices)
	mux.HandleFunc("POST /api/devices", h.createDevice)
	mux.HandleFunc("GET /api/devices/{id}", h.getDevice)
	mux.HandleFunc("PUT /api/devices/{id}", h.updateDevice)
	mux.HandleFunc("DELETE /api/devices/{id}", h.deleteDevice)

	// Booking CRUD
	mux.HandleFunc("GET /api/bookings", h.listBookings)
	mux.HandleFunc("POST /api/bookings", h.createBooking)
	mux.HandleFunc("GET /api/bookings/{id}", h.getBooking)
	mux.HandleFunc("PUT /api/bookings/{id}", h.updateBooking)
	mux.HandleFunc("DELETE /api/bookings/{id}", h.deleteBooking)

	// Search
	mux.HandleFunc("GET /api/search", h.searchDevices)

	// Network plan
	mux.HandleFunc("GET /api/address-plan", h.getAddressPlan)
}

// getAddressPlan handles GET /api/address-plan. Returns every pool entry in
// the network plan, catch-all last.
func (h *Handler) getAddressPlan(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.registry.Entries())
}

// searchDevices handles GET /api/search?q=
func (h *Handler) searchDevices(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "search query required")
		return
	}

	devices, err := h.storage.SearchDevices(query)
	if err != nil {
		log.Error("Failed to search devices", "error", err, "query", query)
		h.internalError(w, err)
		return
	}

	log.Debug("Searched devices", "query", query, "count", len(devices))
	h.writeJSON(w, http.StatusOK, devices)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// internalError logs the error and writes a generic 500 response
func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Error("Internal server error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

// generateID generates a UUIDv7
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
