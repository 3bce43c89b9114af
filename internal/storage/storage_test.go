package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/martinsuchenak/avtrackd/internal/model"
)

// setupTestStorage creates a temporary SQLite storage instance for testing
func setupTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	storage, err := NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })

	return storage
}

func createTestProject(t *testing.T, ss *SQLiteStorage, id, name string) *model.Project {
	t.Helper()

	project := &model.Project{
		ID:     id,
		Name:   name,
		Client: "Test Client",
		Status: "active",
	}
	if err := ss.CreateProject(project); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	return project
}

func TestSQLiteStorage_ProjectCRUD(t *testing.T) {
	ss := setupTestStorage(t)

	project := &model.Project{
		ID:          "proj-1",
		Name:        "Smith Residence",
		Client:      "J. Smith",
		SiteAddress: "1 Harbour View",
		Status:      "active",
		Description: "Full AV fitout",
	}

	if err := ss.CreateProject(project); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	retrieved, err := ss.GetProject("proj-1")
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if retrieved.Name != "Smith Residence" {
		t.Errorf("Expected name Smith Residence, got %s", retrieved.Name)
	}
	if retrieved.Client != "J. Smith" {
		t.Errorf("Expected client J. Smith, got %s", retrieved.Client)
	}

	retrieved.Status = "handover"
	if err := ss.UpdateProject(retrieved); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}

	updated, err := ss.GetProject("proj-1")
	if err != nil {
		t.Fatalf("GetProject() after update error = %v", err)
	}
	if updated.Status != "handover" {
		t.Errorf("Expected status handover, got %s", updated.Status)
	}

	if err := ss.DeleteProject("proj-1"); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}

	if _, err := ss.GetProject("proj-1"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound after delete, got %v", err)
	}
}

func TestSQLiteStorage_ListProjectsFilter(t *testing.T) {
	ss := setupTestStorage(t)

	createTestProject(t, ss, "proj-1", "Smith Residence")
	createTestProject(t, ss, "proj-2", "Jones Office")
	p := createTestProject(t, ss, "proj-3", "Smith Beach House")
	p.Status = "closed"
	if err := ss.UpdateProject(p); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}

	projects, err := ss.ListProjects(&model.ProjectFilter{Name: "smith"})
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(projects) != 2 {
		t.Errorf("Expected 2 projects matching smith, got %d", len(projects))
	}

	projects, err = ss.ListProjects(&model.ProjectFilter{Status: "closed"})
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(projects) != 1 || projects[0].ID != "proj-3" {
		t.Errorf("Expected only proj-3 closed, got %+v", projects)
	}
}

func TestSQLiteStorage_DeviceCRUD(t *testing.T) {
	ss := setupTestStorage(t)
	createTestProject(t, ss, "proj-1", "Smith Residence")

	device := &model.Device{
		ID:         "dev-1",
		ProjectID:  "proj-1",
		Name:       "Entry Camera",
		DeviceType: "camera",
		Category:   "camera",
		MakeModel:  "Axis M3085",
		Room:       "Entry",
		IPAddress:  "192.168.220.131",
		VLANID:     20,
	}

	if err := ss.CreateDevice(device); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}

	retrieved, err := ss.GetDevice("dev-1")
	if err != nil {
		t.Fatalf("GetDevice() error = %v", err)
	}
	if retrieved.IPAddress != "192.168.220.131" || retrieved.VLANID != 20 {
		t.Errorf("Expected 192.168.220.131/VLAN 20, got %s/VLAN %d", retrieved.IPAddress, retrieved.VLANID)
	}

	retrieved.Room = "Front Door"
	if err := ss.UpdateDevice(retrieved); err != nil {
		t.Fatalf("UpdateDevice() error = %v", err)
	}

	updated, err := ss.GetDevice("dev-1")
	if err != nil {
		t.Fatalf("GetDevice() after update error = %v", err)
	}
	if updated.Room != "Front Door" {
		t.Errorf("Expected room Front Door, got %s", updated.Room)
	}

	if err := ss.DeleteDevice("dev-1"); err != nil {
		t.Fatalf("DeleteDevice() error = %v", err)
	}

	if _, err := ss.GetDevice("dev-1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound after delete, got %v", err)
	}
}

func TestSQLiteStorage_DuplicateAddressRejected(t *testing.T) {
	ss := setupTestStorage(t)
	createTestProject(t, ss, "proj-1", "Smith Residence")
	createTestProject(t, ss, "proj-2", "Jones Office")

	first := &model.Device{
		ID: "dev-1", ProjectID: "proj-1", Name: "Camera A",
		DeviceType: "camera", Category: "camera", IPAddress: "192.168.220.131",
	}
	if err := ss.CreateDevice(first); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}

	// Same address in the same project is rejected
	dup := &model.Device{
		ID: "dev-2", ProjectID: "proj-1", Name: "Camera B",
		DeviceType: "camera", Category: "camera", IPAddress: "192.168.220.131",
	}
	if err := ss.CreateDevice(dup); !errors.Is(err, ErrAddressInUse) {
		t.Errorf("Expected ErrAddressInUse, got %v", err)
	}

	// Same address in a different project is fine
	other := &model.Device{
		ID: "dev-3", ProjectID: "proj-2", Name: "Camera C",
		DeviceType: "camera", Category: "camera", IPAddress: "192.168.220.131",
	}
	if err := ss.CreateDevice(other); err != nil {
		t.Errorf("Expected cross-project duplicate to succeed, got %v", err)
	}

	// Devices without an address never collide
	blank1 := &model.Device{ID: "dev-4", ProjectID: "proj-1", Name: "Speaker A", Category: "audio"}
	blank2 := &model.Device{ID: "dev-5", ProjectID: "proj-1", Name: "Speaker B", Category: "audio"}
	if err := ss.CreateDevice(blank1); err != nil {
		t.Fatalf("CreateDevice() blank address error = %v", err)
	}
	if err := ss.CreateDevice(blank2); err != nil {
		t.Errorf("Expected second blank-address device to succeed, got %v", err)
	}
}

func TestSQLiteStorage_ProjectAddressesInSubnet(t *testing.T) {
	ss := setupTestStorage(t)
	createTestProject(t, ss, "proj-1", "Smith Residence")
	createTestProject(t, ss, "proj-2", "Jones Office")

	addresses := []struct {
		id, projectID, ip string
	}{
		{"dev-1", "proj-1", "192.168.220.131"},
		{"dev-2", "proj-1", "192.168.220.132"},
		{"dev-3", "proj-1", "192.168.210.50"},
		{"dev-4", "proj-2", "192.168.220.140"},
	}
	for _, a := range addresses {
		device := &model.Device{ID: a.id, ProjectID: a.projectID, Name: a.id, IPAddress: a.ip}
		if err := ss.CreateDevice(device); err != nil {
			t.Fatalf("CreateDevice(%s) error = %v", a.id, err)
		}
	}

	got, err := ss.ProjectAddressesInSubnet("proj-1", "192.168.220.")
	if err != nil {
		t.Fatalf("ProjectAddressesInSubnet() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 addresses, got %d: %v", len(got), got)
	}
	if got[0] != "192.168.220.131" || got[1] != "192.168.220.132" {
		t.Errorf("Expected [.131 .132], got %v", got)
	}
}

func TestSQLiteStorage_FindAddressConflict(t *testing.T) {
	ss := setupTestStorage(t)
	createTestProject(t, ss, "proj-1", "Smith Residence")

	device := &model.Device{
		ID: "dev-1", ProjectID: "proj-1", Name: "Rack Switch",
		Category: "network", IPAddress: "192.168.210.100",
	}
	if err := ss.CreateDevice(device); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}

	conflict, err := ss.FindAddressConflict("proj-1", "192.168.210.100", "")
	if err != nil {
		t.Fatalf("FindAddressConflict() error = %v", err)
	}
	if conflict == nil {
		t.Fatal("Expected a conflict to be reported")
	}
	if conflict.ID != "dev-1" || conflict.Name != "Rack Switch" || conflict.Category != "network" {
		t.Errorf("Expected dev-1/Rack Switch/network, got %+v", conflict)
	}

	// Excluding the holder itself reports no conflict
	conflict, err = ss.FindAddressConflict("proj-1", "192.168.210.100", "dev-1")
	if err != nil {
		t.Fatalf("FindAddressConflict() with exclude error = %v", err)
	}
	if conflict != nil {
		t.Errorf("Expected no conflict when excluding the holder, got %+v", conflict)
	}

	// Free addresses report no conflict
	conflict, err = ss.FindAddressConflict("proj-1", "192.168.210.101", "")
	if err != nil {
		t.Fatalf("FindAddressConflict() free address error = %v", err)
	}
	if conflict != nil {
		t.Errorf("Expected no conflict on free address, got %+v", conflict)
	}
}

func TestSQLiteStorage_DeleteProjectCascades(t *testing.T) {
	ss := setupTestStorage(t)
	createTestProject(t, ss, "proj-1", "Smith Residence")

	device := &model.Device{ID: "dev-1", ProjectID: "proj-1", Name: "Amp", Category: "audio"}
	if err := ss.CreateDevice(device); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	booking := &model.Booking{ID: "book-1", ProjectID: "proj-1", Date: "2026-09-07", Slot: "am", Technician: "dave"}
	if err := ss.CreateBooking(booking); err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}

	if err := ss.DeleteProject("proj-1"); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}

	if _, err := ss.GetDevice("dev-1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected device to cascade-delete, got %v", err)
	}
	if _, err := ss.GetBooking("book-1"); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("Expected booking to cascade-delete, got %v", err)
	}
}

func TestSQLiteStorage_BookingCRUDAndUniqueness(t *testing.T) {
	ss := setupTestStorage(t)
	createTestProject(t, ss, "proj-1", "Smith Residence")
	createTestProject(t, ss, "proj-2", "Jones Office")

	booking := &model.Booking{
		ID: "book-1", ProjectID: "proj-1", Date: "2026-09-07", Slot: "am", Technician: "dave",
	}
	if err := ss.CreateBooking(booking); err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}

	// Same technician, same date, same slot: rejected even across projects
	clash := &model.Booking{
		ID: "book-2", ProjectID: "proj-2", Date: "2026-09-07", Slot: "am", Technician: "dave",
	}
	if err := ss.CreateBooking(clash); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("Expected ErrSlotTaken, got %v", err)
	}

	// Different slot is fine
	clash.ID = "book-3"
	clash.Slot = "pm"
	if err := ss.CreateBooking(clash); err != nil {
		t.Errorf("Expected pm booking to succeed, got %v", err)
	}

	bookings, err := ss.ListBookings(&model.BookingFilter{Technician: "dave", Date: "2026-09-07"})
	if err != nil {
		t.Fatalf("ListBookings() error = %v", err)
	}
	if len(bookings) != 2 {
		t.Errorf("Expected 2 bookings, got %d", len(bookings))
	}
}

func TestSQLiteStorage_SearchDevices(t *testing.T) {
	ss := setupTestStorage(t)
	createTestProject(t, ss, "proj-1", "Smith Residence")

	devices := []*model.Device{
		{ID: "dev-1", ProjectID: "proj-1", Name: "Cinema Projector", MakeModel: "Epson LS12000", Room: "Cinema"},
		{ID: "dev-2", ProjectID: "proj-1", Name: "Entry Camera", IPAddress: "192.168.220.131", Room: "Entry"},
		{ID: "dev-3", ProjectID: "proj-1", Name: "Rack Amp", Notes: "channel 3 faulty", Room: "Rack"},
	}
	for _, d := range devices {
		if err := ss.CreateDevice(d); err != nil {
			t.Fatalf("CreateDevice(%s) error = %v", d.ID, err)
		}
	}

	tests := []struct {
		query string
		want  int
	}{
		{"cinema", 1},
		{"192.168.220", 1},
		{"faulty", 1},
		{"epson", 1},
		{"nothing-matches", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := ss.SearchDevices(tt.query)
			if err != nil {
				t.Fatalf("SearchDevices(%q) error = %v", tt.query, err)
			}
			if len(results) != tt.want {
				t.Errorf("SearchDevices(%q) = %d results, want %d", tt.query, len(results), tt.want)
			}
		})
	}
}

func TestSQLiteStorage_ExportToFile(t *testing.T) {
	ss := setupTestStorage(t)
	createTestProject(t, ss, "proj-1", "Smith Residence")

	for i := 1; i <= 3; i++ {
		device := &model.Device{
			ID:        fmt.Sprintf("dev-%d", i),
			ProjectID: "proj-1",
			Name:      fmt.Sprintf("Camera %d", i),
			IPAddress: fmt.Sprintf("192.168.220.%d", 130+i),
		}
		if err := ss.CreateDevice(device); err != nil {
			t.Fatalf("CreateDevice() error = %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := ss.ExportToFile(path); err != nil {
		t.Fatalf("ExportToFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading snapshot error = %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected snapshot file to be non-empty")
	}
	for _, want := range []string{"Smith Residence", "Camera 1", "192.168.220.133"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected snapshot to contain %q", want)
		}
	}
}
