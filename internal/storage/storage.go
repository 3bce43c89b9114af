package storage

import (
	"errors"

	"github.com/martinsuchenak/avtrackd/internal/model"
	"github.com/martinsuchenak/avtrackd/internal/netplan"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrDeviceNotFound  = errors.New("device not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidID       = errors.New("invalid ID")

	// ErrAddressInUse is the storage-level conflict signal: the devices
	// table carries a unique index on (project_id, ip_address), so two
	// racing writers cannot both persist the same address.
	ErrAddressInUse = errors.New("ip address already in use within project")

	// ErrSlotTaken signals a (date, slot, technician) booking collision
	ErrSlotTaken = errors.New("technician already booked for this slot")
)

// Storage defines the interface for project and device storage
type Storage interface {
	ListProjects(filter *model.ProjectFilter) ([]model.Project, error)
	GetProject(id string) (*model.Project, error)
	CreateProject(project *model.Project) error
	UpdateProject(project *model.Project) error
	DeleteProject(id string) error

	ListDevices(filter *model.DeviceFilter) ([]model.Device, error)
	GetDevice(id string) (*model.Device, error)
	CreateDevice(device *model.Device) error
	UpdateDevice(device *model.Device) error
	DeleteDevice(id string) error

	SearchDevices(query string) ([]model.Device, error)
}

// AddressStorage is implemented by backends that can answer the allocator's
// and conflict checker's queries
type AddressStorage interface {
	netplan.AddressReader
	netplan.ConflictReader
}

// BookingStorage is implemented by backends that support schedule bookings
type BookingStorage interface {
	ListBookings(filter *model.BookingFilter) ([]model.Booking, error)
	GetBooking(id string) (*model.Booking, error)
	CreateBooking(booking *model.Booking) error
	UpdateBooking(booking *model.Booking) error
	DeleteBooking(id string) error
}

// ExportStorage is implemented by backends that can snapshot themselves to
// a JSON file
type ExportStorage interface {
	ExportToFile(path string) error
}

// NewStorage creates the default storage backend (SQLite)
func NewStorage(dataDir string) (Storage, error) {
	return NewSQLiteStorage(dataDir)
}
