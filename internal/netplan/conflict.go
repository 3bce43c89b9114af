package netplan

import "fmt"

// ConflictingDevice identifies the device already holding an address
type ConflictingDevice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Conflict is the result of an address conflict check
type Conflict struct {
	Found  bool               `json:"has_conflict"`
	Device *ConflictingDevice `json:"conflicting_device,omitempty"`
}

// ConflictReader is the slice of the storage layer the checker needs: an
// exact-match lookup for {project, address} excluding one device id.
type ConflictReader interface {
	FindAddressConflict(projectID, ipAddress, excludeDeviceID string) (*ConflictingDevice, error)
}

// Checker reports whether an address is already held by another device in
// the same project
type Checker struct {
	reader ConflictReader
}

// NewChecker creates a conflict checker over the given reader
func NewChecker(reader ConflictReader) *Checker {
	return &Checker{reader: reader}
}

// HasConflict checks whether another device in the project holds ipAddress.
// excludeDeviceID, when non-empty, lets a device keep its own address on
// update without reporting a self conflict.
func (c *Checker) HasConflict(projectID, ipAddress, excludeDeviceID string) (Conflict, error) {
	device, err := c.reader.FindAddressConflict(projectID, ipAddress, excludeDeviceID)
	if err != nil {
		return Conflict{}, fmt.Errorf("checking address conflict: %w", err)
	}
	if device == nil {
		return Conflict{}, nil
	}
	return Conflict{Found: true, Device: device}, nil
}
