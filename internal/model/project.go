package model

import "time"

// Project represents one installation job for a client site
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Client      string    `json:"client,omitempty"`
	SiteAddress string    `json:"site_address,omitempty"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectFilter holds filter criteria for listing projects
type ProjectFilter struct {
	Name   string // Filter by name (partial match)
	Client string // Filter by client (partial match)
	Status string // Filter by exact status
}

// ProjectStatuses are the accepted values for Project.Status
var ProjectStatuses = []string{"quoted", "active", "on_hold", "handover", "closed"}

// ValidStatus reports whether s is an accepted project status
func ValidStatus(s string) bool {
	for _, v := range ProjectStatuses {
		if v == s {
			return true
		}
	}
	return false
}
