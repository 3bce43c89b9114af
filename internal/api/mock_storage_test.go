package api

import (
	"strings"
	"time"

	"github.com/martinsuchenak/avtrackd/internal/model"
	"github.com/martinsuchenak/avtrackd/internal/netplan"
	"github.com/martinsuchenak/avtrackd/internal/storage"
)

// mockStorage is a simple in-memory storage for testing
type mockStorage struct {
	projects map[string]*model.Project
	devices  map[string]*model.Device
	bookings map[string]*model.Booking
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		projects: make(map[string]*model.Project),
		devices:  make(map[string]*model.Device),
		bookings: make(map[string]*model.Booking),
	}
}

// Project storage

func (m *mockStorage) ListProjects(filter *model.ProjectFilter) ([]model.Project, error) {
	result := make([]model.Project, 0, len(m.projects))
	for _, p := range m.projects {
		if filter != nil {
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
			if filter.Client != "" && p.Client != filter.Client {
				continue
			}
			if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
				continue
			}
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockStorage) GetProject(id string) (*model.Project, error) {
	if p, ok := m.projects[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, storage.ErrProjectNotFound
}

func (m *mockStorage) CreateProject(project *model.Project) error {
	if project.ID == "" {
		project.ID = "proj-" + time.Now().Format("20060102150405")
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now()
	}
	project.UpdatedAt = time.Now()
	m.projects[project.ID] = project
	return nil
}

func (m *mockStorage) UpdateProject(project *model.Project) error {
	if _, ok := m.projects[project.ID]; !ok {
		return storage.ErrProjectNotFound
	}
	project.UpdatedAt = time.Now()
	m.projects[project.ID] = project
	return nil
}

func (m *mockStorage) DeleteProject(id string) error {
	if _, ok := m.projects[id]; !ok {
		return storage.ErrProjectNotFound
	}
	delete(m.projects, id)
	for did, d := range m.devices {
		if d.ProjectID == id {
			delete(m.devices, did)
		}
	}
	return nil
}

// Device storage

func (m *mockStorage) ListDevices(filter *model.DeviceFilter) ([]model.Device, error) {
	result := make([]model.Device, 0, len(m.devices))
	for _, d := range m.devices {
		if filter != nil {
			if filter.ProjectID != "" && d.ProjectID != filter.ProjectID {
				continue
			}
			if filter.Category != "" && d.Category != filter.Category {
				continue
			}
			if filter.DeviceType != "" && d.DeviceType != filter.DeviceType {
				continue
			}
		}
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockStorage) GetDevice(id string) (*model.Device, error) {
	if d, ok := m.devices[id]; ok {
		clone := *d
		return &clone, nil
	}
	return nil, storage.ErrDeviceNotFound
}

func (m *mockStorage) CreateDevice(device *model.Device) error {
	if device.ID == "" {
		device.ID = "dev-" + time.Now().Format("20060102150405")
	}
	if device.IPAddress != "" {
		for _, d := range m.devices {
			if d.ProjectID == device.ProjectID && d.IPAddress == device.IPAddress {
				return storage.ErrAddressInUse
			}
		}
	}
	if device.CreatedAt.IsZero() {
		device.CreatedAt = time.Now()
	}
	device.UpdatedAt = time.Now()
	m.devices[device.ID] = device
	return nil
}

func (m *mockStorage) UpdateDevice(device *model.Device) error {
	if _, ok := m.devices[device.ID]; !ok {
		return storage.ErrDeviceNotFound
	}
	if device.IPAddress != "" {
		for _, d := range m.devices {
			if d.ID != device.ID && d.ProjectID == device.ProjectID && d.IPAddress == device.IPAddress {
				return storage.ErrAddressInUse
			}
		}
	}
	device.UpdatedAt = time.Now()
	m.devices[device.ID] = device
	return nil
}

func (m *mockStorage) DeleteDevice(id string) error {
	if _, ok := m.devices[id]; !ok {
		return storage.ErrDeviceNotFound
	}
	delete(m.devices, id)
	return nil
}

func (m *mockStorage) SearchDevices(query string) ([]model.Device, error) {
	q := strings.ToLower(query)
	result := make([]model.Device, 0)
	for _, d := range m.devices {
		if strings.Contains(strings.ToLower(d.Name), q) ||
			strings.Contains(strings.ToLower(d.Room), q) ||
			strings.Contains(d.IPAddress, query) {
			result = append(result, *d)
		}
	}
	return result, nil
}

// AddressStorage implementation

func (m *mockStorage) ProjectAddressesInSubnet(projectID, subnetPrefix string) ([]string, error) {
	var result []string
	for _, d := range m.devices {
		if d.ProjectID == projectID && strings.HasPrefix(d.IPAddress, subnetPrefix) {
			result = append(result, d.IPAddress)
		}
	}
	return result, nil
}

func (m *mockStorage) FindAddressConflict(projectID, ipAddress, excludeDeviceID string) (*netplan.ConflictingDevice, error) {
	for _, d := range m.devices {
		if d.ProjectID == projectID && d.IPAddress == ipAddress && d.ID != excludeDeviceID {
			return &netplan.ConflictingDevice{ID: d.ID, Name: d.Name, Category: d.Category}, nil
		}
	}
	return nil, nil
}

// BookingStorage implementation

func (m *mockStorage) ListBookings(filter *model.BookingFilter) ([]model.Booking, error) {
	result := make([]model.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		if filter != nil {
			if filter.ProjectID != "" && b.ProjectID != filter.ProjectID {
				continue
			}
			if filter.Technician != "" && b.Technician != filter.Technician {
				continue
			}
			if filter.Date != "" && b.Date != filter.Date {
				continue
			}
		}
		result = append(result, *b)
	}
	return result, nil
}

func (m *mockStorage) GetBooking(id string) (*model.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		clone := *b
		return &clone, nil
	}
	return nil, storage.ErrBookingNotFound
}

func (m *mockStorage) CreateBooking(booking *model.Booking) error {
	if booking.ID == "" {
		booking.ID = "bk-" + time.Now().Format("20060102150405")
	}
	for _, b := range m.bookings {
		if b.Date == booking.Date && b.Slot == booking.Slot && b.Technician == booking.Technician {
			return storage.ErrSlotTaken
		}
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}
	booking.UpdatedAt = time.Now()
	m.bookings[booking.ID] = booking
	return nil
}

func (m *mockStorage) UpdateBooking(booking *model.Booking) error {
	if _, ok := m.bookings[booking.ID]; !ok {
		return storage.ErrBookingNotFound
	}
	for _, b := range m.bookings {
		if b.ID != booking.ID && b.Date == booking.Date && b.Slot == booking.Slot && b.Technician == booking.Technician {
			return storage.ErrSlotTaken
		}
	}
	booking.UpdatedAt = time.Now()
	m.bookings[booking.ID] = booking
	return nil
}

func (m *mockStorage) DeleteBooking(id string) error {
	if _, ok := m.bookings[id]; !ok {
		return storage.ErrBookingNotFound
	}
	delete(m.bookings, id)
	return nil
}
