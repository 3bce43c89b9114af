package model

import "time"

// Booking represents a technician assignment for one date and time slot.
// At most one booking may exist per (date, slot, technician).
type Booking struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Date       string    `json:"date"` // YYYY-MM-DD
	Slot       string    `json:"slot"` // "am", "pm", "evening"
	Technician string    `json:"technician"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BookingFilter holds filter criteria for listing bookings
type BookingFilter struct {
	ProjectID  string // Filter by project
	Technician string // Filter by technician (exact match)
	Date       string // Filter by date (exact match, YYYY-MM-DD)
}

// BookingSlots are the accepted values for Booking.Slot
var BookingSlots = []string{"am", "pm", "evening"}

// ValidSlot reports whether s is an accepted booking slot
func ValidSlot(s string) bool {
	for _, v := range BookingSlots {
		if v == s {
			return true
		}
	}
	return false
}
