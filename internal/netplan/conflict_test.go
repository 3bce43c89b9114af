package netplan

import (
	"errors"
	"testing"
)

// fakeConflictReader holds device records keyed by project and address
type fakeConflictReader struct {
	records map[string]record
	err     error
}

type record struct {
	projectID string
	ip        string
	device    ConflictingDevice
}

func newFakeConflictReader() *fakeConflictReader {
	return &fakeConflictReader{records: make(map[string]record)}
}

func (f *fakeConflictReader) put(projectID, ip string, device ConflictingDevice) {
	f.records[device.ID] = record{projectID: projectID, ip: ip, device: device}
}

func (f *fakeConflictReader) FindAddressConflict(projectID, ipAddress, excludeDeviceID string) (*ConflictingDevice, error) {
	if f.err != nil {
		return nil, f.err
	}
	for id, r := range f.records {
		if id == excludeDeviceID {
			continue
		}
		if r.projectID == projectID && r.ip == ipAddress {
			device := r.device
			return &device, nil
		}
	}
	return nil, nil
}

func TestChecker_ReportsConflict(t *testing.T) {
	reader := newFakeConflictReader()
	reader.put("proj-1", "192.168.210.100", ConflictingDevice{ID: "dev-1", Name: "Rack Switch", Category: "network"})

	checker := NewChecker(reader)

	conflict, err := checker.HasConflict("proj-1", "192.168.210.100", "")
	if err != nil {
		t.Fatalf("HasConflict() error = %v", err)
	}

	if !conflict.Found {
		t.Fatal("Expected conflict to be found")
	}
	if conflict.Device == nil || conflict.Device.ID != "dev-1" {
		t.Errorf("Expected conflicting device dev-1, got %+v", conflict.Device)
	}
	if conflict.Device.Name != "Rack Switch" || conflict.Device.Category != "network" {
		t.Errorf("Expected device identity to be reported, got %+v", conflict.Device)
	}
}

func TestChecker_ExcludeSelf(t *testing.T) {
	reader := newFakeConflictReader()
	reader.put("proj-1", "192.168.210.100", ConflictingDevice{ID: "dev-1", Name: "Rack Switch", Category: "network"})

	checker := NewChecker(reader)

	conflict, err := checker.HasConflict("proj-1", "192.168.210.100", "dev-1")
	if err != nil {
		t.Fatalf("HasConflict() error = %v", err)
	}

	if conflict.Found {
		t.Error("Expected no conflict when the only holder is the excluded device")
	}
}

func TestChecker_NoConflictAcrossProjects(t *testing.T) {
	reader := newFakeConflictReader()
	reader.put("proj-2", "192.168.210.100", ConflictingDevice{ID: "dev-1", Name: "Rack Switch", Category: "network"})

	checker := NewChecker(reader)

	conflict, err := checker.HasConflict("proj-1", "192.168.210.100", "")
	if err != nil {
		t.Fatalf("HasConflict() error = %v", err)
	}

	if conflict.Found {
		t.Error("Expected no conflict for a different project")
	}
}

func TestChecker_ReaderErrorPropagates(t *testing.T) {
	reader := newFakeConflictReader()
	reader.err = errors.New("database closed")

	checker := NewChecker(reader)

	_, err := checker.HasConflict("proj-1", "192.168.210.100", "")
	if !errors.Is(err, reader.err) {
		t.Errorf("Expected wrapped reader error, got %v", err)
	}
}
