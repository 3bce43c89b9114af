package model

import "time"

// Device represents a piece of installed equipment within a project
type Device struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Name       string    `json:"name"`
	DeviceType string    `json:"device_type"` // e.g., "camera", "nvr", "touch_panel"
	Category   string    `json:"category"`    // e.g., "camera", "control", "audio"
	MakeModel  string    `json:"make_model,omitempty"`
	Room       string    `json:"room,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	VLANID     int       `json:"vlan_id,omitempty"`
	MACAddress string    `json:"mac_address,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DeviceFilter holds filter criteria for listing devices
type DeviceFilter struct {
	ProjectID  string // Filter by owning project
	Category   string // Filter by category
	DeviceType string // Filter by device type
}
