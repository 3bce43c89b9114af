package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/martinsuchenak/avtrackd/internal/model"
	"github.com/martinsuchenak/avtrackd/internal/netplan"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStorage implements Storage with a SQLite backend
type SQLiteStorage struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite-based storage
func NewSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "avtrackd.db")

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ss := &SQLiteStorage{
		db:   db,
		path: dbPath,
	}

	if err := ss.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return ss, nil
}

// initSchema creates the database schema
func (ss *SQLiteStorage) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}

	_, err = ss.db.Exec(string(schema))
	return err
}

// Close closes the database connection
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}

// GetDatabasePath returns the database file path
func (ss *SQLiteStorage) GetDatabasePath() string {
	return ss.path
}

// Project operations

// ListProjects returns all projects, optionally filtered
func (ss *SQLiteStorage) ListProjects(filter *model.ProjectFilter) ([]model.Project, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	query := `
		SELECT id, name, client, site_address, status, description, created_at, updated_at
		FROM projects
	`
	var conditions []string
	var args []interface{}

	if filter != nil {
		if filter.Name != "" {
			conditions = append(conditions, "LOWER(name) LIKE ?")
			args = append(args, "%"+strings.ToLower(filter.Name)+"%")
		}
		if filter.Client != "" {
			conditions = append(conditions, "LOWER(client) LIKE ?")
			args = append(args, "%"+strings.ToLower(filter.Client)+"%")
		}
		if filter.Status != "" {
			conditions = append(conditions, "status = ?")
			args = append(args, filter.Status)
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"

	rows, err := ss.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// GetProject retrieves a project by ID
func (ss *SQLiteStorage) GetProject(id string) (*model.Project, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.Query(`
		SELECT id, name, client, site_address, status, description, created_at, updated_at
		FROM projects
		WHERE id = ?
		LIMIT 1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}
	defer rows.Close()

	projects, err := scanProjects(rows)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, ErrProjectNotFound
	}

	return &projects[0], nil
}

// CreateProject adds a new project
func (ss *SQLiteStorage) CreateProject(project *model.Project) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if project.ID == "" {
		return ErrInvalidID
	}

	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := ss.db.Exec(`
		INSERT INTO projects (id, name, client, site_address, status, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, project.ID, project.Name, project.Client, project.SiteAddress, project.Status,
		project.Description, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}

	return nil
}

// UpdateProject updates an existing project
func (ss *SQLiteStorage) UpdateProject(project *model.Project) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if project.ID == "" {
		return ErrInvalidID
	}

	project.UpdatedAt = time.Now()

	result, err := ss.db.Exec(`
		UPDATE projects
		SET name = ?, client = ?, site_address = ?, status = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, project.Name, project.Client, project.SiteAddress, project.Status,
		project.Description, project.UpdatedAt, project.ID)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrProjectNotFound
	}

	return nil
}

// DeleteProject removes a project and, via cascade, its devices and bookings
func (ss *SQLiteStorage) DeleteProject(id string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrProjectNotFound
	}

	return nil
}

// Device operations

// ListDevices returns all devices, optionally filtered
func (ss *SQLiteStorage) ListDevices(filter *model.DeviceFilter) ([]model.Device, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	query := `
		SELECT id, project_id, name, device_type, category, make_model, room,
		       ip_address, vlan_id, mac_address, notes, created_at, updated_at
		FROM devices
	`
	var conditions []string
	var args []interface{}

	if filter != nil {
		if filter.ProjectID != "" {
			conditions = append(conditions, "project_id = ?")
			args = append(args, filter.ProjectID)
		}
		if filter.Category != "" {
			conditions = append(conditions, "category = ?")
			args = append(args, filter.Category)
		}
		if filter.DeviceType != "" {
			conditions = append(conditions, "device_type = ?")
			args = append(args, filter.DeviceType)
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"

	rows, err := ss.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	return scanDevices(rows)
}

// GetDevice retrieves a device by ID
func (ss *SQLiteStorage) GetDevice(id string) (*model.Device, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.Query(`
		SELECT id, project_id, name, device_type, category, make_model, room,
		       ip_address, vlan_id, mac_address, notes, created_at, updated_at
		FROM devices
		WHERE id = ?
		LIMIT 1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying device: %w", err)
	}
	defer rows.Close()

	devices, err := scanDevices(rows)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, ErrDeviceNotFound
	}

	return &devices[0], nil
}

// CreateDevice adds a new device. A duplicate address within the project
// surfaces as ErrAddressInUse.
func (ss *SQLiteStorage) CreateDevice(device *model.Device) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if device.ID == "" {
		return ErrInvalidID
	}

	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now

	_, err := ss.db.Exec(`
		INSERT INTO devices (id, project_id, name, device_type, category, make_model, room,
		                     ip_address, vlan_id, mac_address, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, device.ID, device.ProjectID, device.Name, device.DeviceType, device.Category,
		device.MakeModel, device.Room, device.IPAddress, device.VLANID, device.MACAddress,
		device.Notes, device.CreatedAt, device.UpdatedAt)
	if err != nil {
		return mapDeviceConstraintErr(err)
	}

	return nil
}

// UpdateDevice updates an existing device
func (ss *SQLiteStorage) UpdateDevice(device *model.Device) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if device.ID == "" {
		return ErrInvalidID
	}

	device.UpdatedAt = time.Now()

	result, err := ss.db.Exec(`
		UPDATE devices
		SET project_id = ?, name = ?, device_type = ?, category = ?, make_model = ?, room = ?,
		    ip_address = ?, vlan_id = ?, mac_address = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, device.ProjectID, device.Name, device.DeviceType, device.Category, device.MakeModel,
		device.Room, device.IPAddress, device.VLANID, device.MACAddress, device.Notes,
		device.UpdatedAt, device.ID)
	if err != nil {
		return mapDeviceConstraintErr(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// DeleteDevice removes a device
func (ss *SQLiteStorage) DeleteDevice(id string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.Exec("DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// SearchDevices searches for devices matching the query
func (ss *SQLiteStorage) SearchDevices(query string) ([]model.Device, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	if query == "" {
		return ss.listDevicesLocked()
	}

	pattern := "%" + strings.ToLower(query) + "%"

	rows, err := ss.db.Query(`
		SELECT id, project_id, name, device_type, category, make_model, room,
		       ip_address, vlan_id, mac_address, notes, created_at, updated_at
		FROM devices
		WHERE LOWER(name) LIKE ? OR LOWER(make_model) LIKE ? OR LOWER(room) LIKE ?
		   OR ip_address LIKE ? OR LOWER(notes) LIKE ?
		ORDER BY name
	`, pattern, pattern, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching devices: %w", err)
	}
	defer rows.Close()

	return scanDevices(rows)
}

func (ss *SQLiteStorage) listDevicesLocked() ([]model.Device, error) {
	rows, err := ss.db.Query(`
		SELECT id, project_id, name, device_type, category, make_model, room,
		       ip_address, vlan_id, mac_address, notes, created_at, updated_at
		FROM devices
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	return scanDevices(rows)
}

// Address queries for the allocator and conflict checker

// ProjectAddressesInSubnet returns addresses held by a project's devices
// within the given subnet prefix (e.g. "192.168.220.")
func (ss *SQLiteStorage) ProjectAddressesInSubnet(projectID, subnetPrefix string) ([]string, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.Query(`
		SELECT ip_address
		FROM devices
		WHERE project_id = ? AND ip_address LIKE ? || '%'
		ORDER BY ip_address
	`, projectID, subnetPrefix)
	if err != nil {
		return nil, fmt.Errorf("querying project addresses: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scanning address: %w", err)
		}
		addresses = append(addresses, addr)
	}

	return addresses, rows.Err()
}

// FindAddressConflict returns the device holding ipAddress within the
// project, excluding excludeDeviceID, or nil if none does
func (ss *SQLiteStorage) FindAddressConflict(projectID, ipAddress, excludeDeviceID string) (*netplan.ConflictingDevice, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	var device netplan.ConflictingDevice
	err := ss.db.QueryRow(`
		SELECT id, name, category
		FROM devices
		WHERE project_id = ? AND ip_address = ? AND id <> ?
		LIMIT 1
	`, projectID, ipAddress, excludeDeviceID).Scan(&device.ID, &device.Name, &device.Category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying address conflict: %w", err)
	}

	return &device, nil
}

// Booking operations

// ListBookings returns all bookings, optionally filtered
func (ss *SQLiteStorage) ListBookings(filter *model.BookingFilter) ([]model.Booking, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	query := `
		SELECT id, project_id, date, slot, technician, notes, created_at, updated_at
		FROM bookings
	`
	var conditions []string
	var args []interface{}

	if filter != nil {
		if filter.ProjectID != "" {
			conditions = append(conditions, "project_id = ?")
			args = append(args, filter.ProjectID)
		}
		if filter.Technician != "" {
			conditions = append(conditions, "technician = ?")
			args = append(args, filter.Technician)
		}
		if filter.Date != "" {
			conditions = append(conditions, "date = ?")
			args = append(args, filter.Date)
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date, slot, technician"

	rows, err := ss.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetBooking retrieves a booking by ID
func (ss *SQLiteStorage) GetBooking(id string) (*model.Booking, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.Query(`
		SELECT id, project_id, date, slot, technician, notes, created_at, updated_at
		FROM bookings
		WHERE id = ?
		LIMIT 1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying booking: %w", err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrBookingNotFound
	}

	return &bookings[0], nil
}

// CreateBooking adds a new booking. A (date, slot, technician) collision
// surfaces as ErrSlotTaken.
func (ss *SQLiteStorage) CreateBooking(booking *model.Booking) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if booking.ID == "" {
		return ErrInvalidID
	}

	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	_, err := ss.db.Exec(`
		INSERT INTO bookings (id, project_id, date, slot, technician, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, booking.ID, booking.ProjectID, booking.Date, booking.Slot, booking.Technician,
		booking.Notes, booking.CreatedAt, booking.UpdatedAt)
	if err != nil {
		return mapBookingConstraintErr(err)
	}

	return nil
}

// UpdateBooking updates an existing booking
func (ss *SQLiteStorage) UpdateBooking(booking *model.Booking) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if booking.ID == "" {
		return ErrInvalidID
	}

	booking.UpdatedAt = time.Now()

	result, err := ss.db.Exec(`
		UPDATE bookings
		SET project_id = ?, date = ?, slot = ?, technician = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, booking.ProjectID, booking.Date, booking.Slot, booking.Technician, booking.Notes,
		booking.UpdatedAt, booking.ID)
	if err != nil {
		return mapBookingConstraintErr(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// DeleteBooking removes a booking
func (ss *SQLiteStorage) DeleteBooking(id string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.Exec("DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting booking: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// ExportToFile writes a JSON snapshot of projects, devices and bookings
func (ss *SQLiteStorage) ExportToFile(filePath string) error {
	projects, err := ss.ListProjects(nil)
	if err != nil {
		return err
	}
	devices, err := ss.ListDevices(nil)
	if err != nil {
		return err
	}
	bookings, err := ss.ListBookings(nil)
	if err != nil {
		return err
	}

	snapshot := struct {
		ExportedAt time.Time       `json:"exported_at"`
		Projects   []model.Project `json:"projects"`
		Devices    []model.Device  `json:"devices"`
		Bookings   []model.Booking `json:"bookings"`
	}{
		ExportedAt: time.Now(),
		Projects:   projects,
		Devices:    devices,
		Bookings:   bookings,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	return os.WriteFile(filePath, data, 0644)
}

// Helper functions

func scanProjects(rows *sql.Rows) ([]model.Project, error) {
	var projects []model.Project

	for rows.Next() {
		var p model.Project
		err := rows.Scan(&p.ID, &p.Name, &p.Client, &p.SiteAddress, &p.Status,
			&p.Description, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

func scanDevices(rows *sql.Rows) ([]model.Device, error) {
	var devices []model.Device

	for rows.Next() {
		var d model.Device
		err := rows.Scan(&d.ID, &d.ProjectID, &d.Name, &d.DeviceType, &d.Category,
			&d.MakeModel, &d.Room, &d.IPAddress, &d.VLANID, &d.MACAddress, &d.Notes,
			&d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, d)
	}

	return devices, rows.Err()
}

func scanBookings(rows *sql.Rows) ([]model.Booking, error) {
	var bookings []model.Booking

	for rows.Next() {
		var b model.Booking
		err := rows.Scan(&b.ID, &b.ProjectID, &b.Date, &b.Slot, &b.Technician,
			&b.Notes, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

func mapDeviceConstraintErr(err error) error {
	// Partial index violations are reported by index name, plain unique
	// violations by column list.
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") &&
		(strings.Contains(msg, "idx_devices_project_ip") || strings.Contains(msg, "devices.ip_address")) {
		return ErrAddressInUse
	}
	return fmt.Errorf("writing device: %w", err)
}

func mapBookingConstraintErr(err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), "bookings") {
		return ErrSlotTaken
	}
	return fmt.Errorf("writing booking: %w", err)
}
