package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paularlott/mcp"

	"github.com/martinsuchenak/avtrackd/internal/log"
	"github.com/martinsuchenak/avtrackd/internal/model"
	"github.com/martinsuchenak/avtrackd/internal/netplan"
	"github.com/martinsuchenak/avtrackd/internal/storage"
)

// Server wraps the MCP server with project and device storage
type Server struct {
	mcpServer   *mcp.Server
	storage     storage.Storage
	allocator   *netplan.Allocator
	checker     *netplan.Checker
	bearerToken string
}

// NewServer creates a new MCP server for project and device management
func NewServer(store storage.Storage, registry *netplan.Registry, bearerToken string) *Server {
	s := &Server{
		mcpServer:   mcp.NewServer("avtrackd", "1.0.0"),
		storage:     store,
		bearerToken: bearerToken,
	}
	if addr, ok := store.(storage.AddressStorage); ok {
		s.allocator = netplan.NewAllocator(registry, addr)
		s.checker = netplan.NewChecker(addr)
	}
	s.registerTools()
	return s
}

// registerTools registers all project, device and booking tools
func (s *Server) registerTools() {
	// Project tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("project_save", "Create a new project or update an existing one. If id is provided and exists, it updates; otherwise creates new.",
			mcp.String("id", "Project ID (if updating existing project)"),
			mcp.String("name", "Project name", mcp.Required()),
			mcp.String("client", "Client name"),
			mcp.String("site_address", "Site address"),
			mcp.String("status", "Project status (quoted, active, on_hold, handover, closed)"),
			mcp.String("description", "Project description"),
		),
		s.handleProjectSave,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("project_get", "Get a project by ID",
			mcp.String("id", "Project ID", mcp.Required()),
		),
		s.handleProjectGet,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("project_list", "List all projects, optionally filtered by name, client or status",
			mcp.String("name", "Filter by project name"),
			mcp.String("client", "Filter by client name"),
			mcp.String("status", "Filter by status"),
		),
		s.handleProjectList,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("project_delete", "Delete a project and all of its devices",
			mcp.String("id", "Project ID", mcp.Required()),
		),
		s.handleProjectDelete,
	)

	// Device tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("device_save", "Create a new device or update an existing one. A device created without ip_address gets the next free address for its type or category. If id is provided and exists, it updates; otherwise creates new.",
			mcp.String("id", "Device ID (if updating existing device)"),
			mcp.String("name", "Device name", mcp.Required()),
			mcp.String("project_id", "Project ID the device belongs to", mcp.Required()),
			mcp.String("device_type", "Device type (e.g., camera, nvr, touch_panel)"),
			mcp.String("category", "Device category (e.g., camera, network, control, audio, video, lighting)"),
			mcp.String("make_model", "Make and model"),
			mcp.String("room", "Room or location within the site"),
			mcp.String("ip_address", "Explicit IP address (leave empty to auto-assign)"),
			mcp.String("vlan_id", "VLAN ID"),
			mcp.String("mac_address", "MAC address"),
			mcp.String("notes", "Free-form notes"),
		),
		s.handleDeviceSave,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("device_get", "Get a device by ID",
			mcp.String("id", "Device ID", mcp.Required()),
		),
		s.handleDeviceGet,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("device_list", "List devices, optionally filtered by project, category or search query",
			mcp.String("project_id", "Filter by project ID"),
			mcp.String("category", "Filter by category"),
			mcp.String("query", "Search query (searches name, make/model, room, IP, notes)"),
		),
		s.handleDeviceList,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("device_delete", "Delete a device",
			mcp.String("id", "Device ID", mcp.Required()),
		),
		s.handleDeviceDelete,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("device_next_address", "Preview the next free IP address for a device type or category in a project without reserving it",
			mcp.String("project_id", "Project ID", mcp.Required()),
			mcp.String("device_type", "Device type"),
			mcp.String("category", "Device category"),
		),
		s.handleNextAddress,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("device_check_address", "Check whether an IP address is already held by another device in a project",
			mcp.String("project_id", "Project ID", mcp.Required()),
			mcp.String("ip_address", "IP address to check", mcp.Required()),
			mcp.String("exclude_device_id", "Device ID to exclude from the check"),
		),
		s.handleCheckAddress,
	)

	// Booking tools

	s.mcpServer.RegisterTool(
		mcp.NewTool("booking_save", "Create or update a technician booking. A technician can hold only one booking per date and slot.",
			mcp.String("id", "Booking ID (if updating existing booking)"),
			mcp.String("project_id", "Project ID", mcp.Required()),
			mcp.String("date", "Date in YYYY-MM-DD format", mcp.Required()),
			mcp.String("slot", "Time slot (am, pm, evening)", mcp.Required()),
			mcp.String("technician", "Technician name", mcp.Required()),
			mcp.String("notes", "Free-form notes"),
		),
		s.handleBookingSave,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("booking_list", "List bookings, optionally filtered by project, technician or date",
			mcp.String("project_id", "Filter by project ID"),
			mcp.String("technician", "Filter by technician"),
			mcp.String("date", "Filter by date (YYYY-MM-DD)"),
		),
		s.handleBookingList,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("booking_delete", "Delete a booking",
			mcp.String("id", "Booking ID", mcp.Required()),
		),
		s.handleBookingDelete,
	)
}

// HandleRequest handles MCP HTTP requests with optional bearer token authentication
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	log.Debug("MCP request received", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

	if s.bearerToken != "" {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			log.Warn("MCP request missing Authorization header", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Missing Authorization header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			log.Warn("MCP request invalid Authorization format", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid Authorization format", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		if token != s.bearerToken {
			log.Warn("MCP request invalid token", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
	}

	s.mcpServer.HandleRequest(w, r)
}

// Project tool handlers

func (s *Server) handleProjectSave(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	name, err := req.String("name")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("name is required: " + err.Error())
	}

	id, _ := req.String("id")
	status := req.StringOr("status", "")
	if status != "" && !model.ValidStatus(status) {
		return nil, mcp.NewToolErrorInvalidParams("invalid status: " + status)
	}

	if id != "" {
		if existing, err := s.storage.GetProject(id); err == nil {
			existing.Name = name
			if client := req.StringOr("client", ""); client != "" {
				existing.Client = client
			}
			if site := req.StringOr("site_address", ""); site != "" {
				existing.SiteAddress = site
			}
			if status != "" {
				existing.Status = status
			}
			if desc := req.StringOr("description", ""); desc != "" {
				existing.Description = desc
			}

			if err := s.storage.UpdateProject(existing); err != nil {
				log.Error("MCP project update failed", "error", err, "id", id)
				return nil, mcp.NewToolErrorInternal("failed to update project: " + err.Error())
			}

			log.Info("MCP project updated", "id", id, "name", name)
			return mcp.NewToolResponseText(fmt.Sprintf("Project updated: %s (ID: %s)", name, id)), nil
		}
	}

	if status == "" {
		status = "active"
	}
	project := &model.Project{
		ID:          id,
		Name:        name,
		Client:      req.StringOr("client", ""),
		SiteAddress: req.StringOr("site_address", ""),
		Status:      status,
		Description: req.StringOr("description", ""),
	}
	if project.ID == "" {
		project.ID = s.generateID(name)
	}

	if err := s.storage.CreateProject(project); err != nil {
		log.Error("MCP project creation failed", "error", err, "name", name)
		return nil, mcp.NewToolErrorInternal("failed to create project: " + err.Error())
	}

	log.Info("MCP project created", "id", project.ID, "name", name)
	return mcp.NewToolResponseText(fmt.Sprintf("Project created: %s (ID: %s)", project.Name, project.ID)), nil
}

func (s *Server) handleProjectGet(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	project, err := s.storage.GetProject(id)
	if err != nil {
		log.Error("MCP project get failed", "error", err, "id", id)
		return nil, mcp.NewToolErrorInternal("project not found: " + err.Error())
	}

	return mcp.NewToolResponseText(s.formatProjectSummary(project)), nil
}

func (s *Server) handleProjectList(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	filter := &model.ProjectFilter{
		Name:   req.StringOr("name", ""),
		Client: req.StringOr("client", ""),
		Status: req.StringOr("status", ""),
	}

	projects, err := s.storage.ListProjects(filter)
	if err != nil {
		log.Error("MCP project list failed", "error", err)
		return nil, mcp.NewToolErrorInternal("failed to list projects: " + err.Error())
	}

	if len(projects) == 0 {
		return mcp.NewToolResponseText("No projects found"), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d projects:\n\n", len(projects)))
	for _, p := range projects {
		result.WriteString(s.formatProjectSummary(&p))
		result.WriteString("\n")
	}
	return mcp.NewToolResponseText(result.String()), nil
}

func (s *Server) handleProjectDelete(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	if err := s.storage.DeleteProject(id); err != nil {
		log.Error("MCP project deletion failed", "error", err, "id", id)
		return nil, mcp.NewToolErrorInternal("failed to delete project: " + err.Error())
	}

	log.Info("MCP project deleted", "id", id)
	return mcp.NewToolResponseText("Project deleted successfully"), nil
}

// Device tool handlers

func (s *Server) handleDeviceSave(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	name, err := req.String("name")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("name is required: " + err.Error())
	}
	projectID, err := req.String("project_id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("project_id is required: " + err.Error())
	}

	if _, err := s.storage.GetProject(projectID); err != nil {
		return nil, mcp.NewToolErrorInvalidParams("project not found: " + projectID)
	}

	ipAddress := req.StringOr("ip_address", "")
	if ipAddress != "" && net.ParseIP(ipAddress) == nil {
		return nil, mcp.NewToolErrorInvalidParams("invalid IP address: " + ipAddress)
	}

	id, _ := req.String("id")
	if id != "" {
		if existing, err := s.storage.GetDevice(id); err == nil {
			existing.Name = name
			existing.ProjectID = projectID
			if v := req.StringOr("device_type", ""); v != "" {
				existing.DeviceType = v
			}
			if v := req.StringOr("category", ""); v != "" {
				existing.Category = v
			}
			if v := req.StringOr("make_model", ""); v != "" {
				existing.MakeModel = v
			}
			if v := req.StringOr("room", ""); v != "" {
				existing.Room = v
			}
			if v := req.StringOr("mac_address", ""); v != "" {
				existing.MACAddress = v
			}
			if v := req.StringOr("notes", ""); v != "" {
				existing.Notes = v
			}
			if ipAddress != "" {
				if s.checker != nil {
					conflict, err := s.checker.HasConflict(projectID, ipAddress, existing.ID)
					if err != nil {
						return nil, mcp.NewToolErrorInternal("failed to check address: " + err.Error())
					}
					if conflict.Found {
						return mcp.NewToolResponseText(fmt.Sprintf("Address %s is already used by %s (ID: %s). Device not updated.",
							ipAddress, conflict.Device.Name, conflict.Device.ID)), nil
					}
				}
				existing.IPAddress = ipAddress
			}
			if vlan, err := strconv.Atoi(req.StringOr("vlan_id", "")); err == nil && vlan > 0 {
				existing.VLANID = vlan
			}

			if err := s.storage.UpdateDevice(existing); err != nil {
				log.Error("MCP device update failed", "error", err, "id", id)
				return nil, mcp.NewToolErrorInternal("failed to update device: " + err.Error())
			}

			log.Info("MCP device updated", "id", id, "name", name)
			return mcp.NewToolResponseText(fmt.Sprintf("Device updated: %s (ID: %s)", name, id)), nil
		}
	}

	device := &model.Device{
		ID:         id,
		ProjectID:  projectID,
		Name:       name,
		DeviceType: req.StringOr("device_type", ""),
		Category:   req.StringOr("category", ""),
		MakeModel:  req.StringOr("make_model", ""),
		Room:       req.StringOr("room", ""),
		IPAddress:  ipAddress,
		MACAddress: req.StringOr("mac_address", ""),
		Notes:      req.StringOr("notes", ""),
	}
	if vlan, err := strconv.Atoi(req.StringOr("vlan_id", "")); err == nil && vlan > 0 {
		device.VLANID = vlan
	}
	if device.ID == "" {
		device.ID = s.generateID(name)
	}

	warning := ""
	if device.IPAddress == "" && s.allocator != nil {
		result, err := s.allocator.NextAddress(projectID, device.DeviceType, device.Category)
		if err != nil {
			log.Error("MCP device address allocation failed", "error", err, "project_id", projectID)
			return nil, mcp.NewToolErrorInternal("failed to allocate address: " + err.Error())
		}
		device.IPAddress = result.Address
		device.VLANID = result.VLANID
		warning = result.Warning
	} else if device.IPAddress != "" && s.checker != nil {
		conflict, err := s.checker.HasConflict(projectID, device.IPAddress, "")
		if err != nil {
			return nil, mcp.NewToolErrorInternal("failed to check address: " + err.Error())
		}
		if conflict.Found {
			return mcp.NewToolResponseText(fmt.Sprintf("Address %s is already used by %s (ID: %s). Device not created.",
				device.IPAddress, conflict.Device.Name, conflict.Device.ID)), nil
		}
	}

	if err := s.storage.CreateDevice(device); err != nil {
		log.Error("MCP device creation failed", "error", err, "name", name)
		return nil, mcp.NewToolErrorInternal("failed to create device: " + err.Error())
	}

	log.Info("MCP device created", "id", device.ID, "name", name, "ip", device.IPAddress)
	msg := fmt.Sprintf("Device created: %s (ID: %s, IP: %s, VLAN: %d)", device.Name, device.ID, device.IPAddress, device.VLANID)
	if warning != "" {
		msg += "\nWarning: " + warning
	}
	return mcp.NewToolResponseText(msg), nil
}

func (s *Server) handleDeviceGet(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	device, err := s.storage.GetDevice(id)
	if err != nil {
		log.Error("MCP device get failed", "error", err, "id", id)
		return nil, mcp.NewToolErrorInternal("device not found: " + err.Error())
	}

	return mcp.NewToolResponseText(s.formatDeviceSummary(device)), nil
}

func (s *Server) handleDeviceList(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	query := req.StringOr("query", "")

	var devices []model.Device
	var err error
	if query != "" {
		devices, err = s.storage.SearchDevices(query)
	} else {
		devices, err = s.storage.ListDevices(&model.DeviceFilter{
			ProjectID: req.StringOr("project_id", ""),
			Category:  req.StringOr("category", ""),
		})
	}
	if err != nil {
		log.Error("MCP device list failed", "error", err, "query", query)
		return nil, mcp.NewToolErrorInternal("failed to list devices: " + err.Error())
	}

	if len(devices) == 0 {
		return mcp.NewToolResponseText("No devices found"), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d devices:\n\n", len(devices)))
	for _, d := range devices {
		result.WriteString(s.formatDeviceSummary(&d))
		result.WriteString("\n")
	}
	return mcp.NewToolResponseText(result.String()), nil
}

func (s *Server) handleDeviceDelete(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	if err := s.storage.DeleteDevice(id); err != nil {
		log.Error("MCP device deletion failed", "error", err, "id", id)
		return nil, mcp.NewToolErrorInternal("failed to delete device: " + err.Error())
	}

	log.Info("MCP device deleted", "id", id)
	return mcp.NewToolResponseText("Device deleted successfully"), nil
}

func (s *Server) handleNextAddress(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	projectID, err := req.String("project_id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("project_id is required: " + err.Error())
	}

	if s.allocator == nil {
		return mcp.NewToolResponseText("Address allocation is not supported by the current storage backend."), nil
	}

	result, err := s.allocator.NextAddress(projectID, req.StringOr("device_type", ""), req.StringOr("category", ""))
	if err != nil {
		log.Error("MCP next address failed", "error", err, "project_id", projectID)
		return nil, mcp.NewToolErrorInternal("failed to compute next address: " + err.Error())
	}

	msg := fmt.Sprintf("Next address: %s (VLAN %d, %s match)", result.Address, result.VLANID, result.Resolution)
	if result.Warning != "" {
		msg += "\nWarning: " + result.Warning
	}
	return mcp.NewToolResponseText(msg), nil
}

func (s *Server) handleCheckAddress(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	projectID, err := req.String("project_id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("project_id is required: " + err.Error())
	}
	ipAddress, err := req.String("ip_address")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("ip_address is required: " + err.Error())
	}
	if net.ParseIP(ipAddress) == nil {
		return nil, mcp.NewToolErrorInvalidParams("invalid IP address: " + ipAddress)
	}

	if s.checker == nil {
		return mcp.NewToolResponseText("Conflict checking is not supported by the current storage backend."), nil
	}

	conflict, err := s.checker.HasConflict(projectID, ipAddress, req.StringOr("exclude_device_id", ""))
	if err != nil {
		log.Error("MCP address check failed", "error", err, "project_id", projectID, "ip", ipAddress)
		return nil, mcp.NewToolErrorInternal("failed to check address: " + err.Error())
	}

	if !conflict.Found {
		return mcp.NewToolResponseText(fmt.Sprintf("Address %s is free in this project", ipAddress)), nil
	}
	return mcp.NewToolResponseText(fmt.Sprintf("Address %s is used by %s (ID: %s, category: %s)",
		ipAddress, conflict.Device.Name, conflict.Device.ID, conflict.Device.Category)), nil
}

// Booking tool handlers

func (s *Server) handleBookingSave(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	bookings, ok := s.storage.(storage.BookingStorage)
	if !ok {
		return mcp.NewToolResponseText("Bookings are not supported by the current storage backend."), nil
	}

	projectID, err := req.String("project_id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("project_id is required: " + err.Error())
	}
	date, err := req.String("date")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("date is required: " + err.Error())
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, mcp.NewToolErrorInvalidParams("date must be YYYY-MM-DD")
	}
	slot, err := req.String("slot")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("slot is required: " + err.Error())
	}
	if !model.ValidSlot(slot) {
		return nil, mcp.NewToolErrorInvalidParams("slot must be one of: " + strings.Join(model.BookingSlots, ", "))
	}
	technician, err := req.String("technician")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("technician is required: " + err.Error())
	}

	booking := &model.Booking{
		ID:         req.StringOr("id", ""),
		ProjectID:  projectID,
		Date:       date,
		Slot:       slot,
		Technician: technician,
		Notes:      req.StringOr("notes", ""),
	}

	if booking.ID != "" {
		if _, err := bookings.GetBooking(booking.ID); err == nil {
			if err := bookings.UpdateBooking(booking); err != nil {
				if errors.Is(err, storage.ErrSlotTaken) {
					return mcp.NewToolResponseText(fmt.Sprintf("%s is already booked for %s %s", technician, date, slot)), nil
				}
				log.Error("MCP booking update failed", "error", err, "id", booking.ID)
				return nil, mcp.NewToolErrorInternal("failed to update booking: " + err.Error())
			}
			log.Info("MCP booking updated", "id", booking.ID)
			return mcp.NewToolResponseText(fmt.Sprintf("Booking updated: %s on %s %s (ID: %s)", technician, date, slot, booking.ID)), nil
		}
	}

	if booking.ID == "" {
		booking.ID = s.generateID(technician)
	}
	if err := bookings.CreateBooking(booking); err != nil {
		if errors.Is(err, storage.ErrSlotTaken) {
			return mcp.NewToolResponseText(fmt.Sprintf("%s is already booked for %s %s", technician, date, slot)), nil
		}
		log.Error("MCP booking creation failed", "error", err)
		return nil, mcp.NewToolErrorInternal("failed to create booking: " + err.Error())
	}

	log.Info("MCP booking created", "id", booking.ID, "date", date, "slot", slot, "technician", technician)
	return mcp.NewToolResponseText(fmt.Sprintf("Booking created: %s on %s %s (ID: %s)", technician, date, slot, booking.ID)), nil
}

func (s *Server) handleBookingList(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	bookingStore, ok := s.storage.(storage.BookingStorage)
	if !ok {
		return mcp.NewToolResponseText("Bookings are not supported by the current storage backend."), nil
	}

	filter := &model.BookingFilter{
		ProjectID:  req.StringOr("project_id", ""),
		Technician: req.StringOr("technician", ""),
		Date:       req.StringOr("date", ""),
	}

	bookings, err := bookingStore.ListBookings(filter)
	if err != nil {
		log.Error("MCP booking list failed", "error", err)
		return nil, mcp.NewToolErrorInternal("failed to list bookings: " + err.Error())
	}

	if len(bookings) == 0 {
		return mcp.NewToolResponseText("No bookings found"), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d bookings:\n\n", len(bookings)))
	for _, b := range bookings {
		result.WriteString(fmt.Sprintf("%s %s: %s (project %s, ID: %s)\n", b.Date, b.Slot, b.Technician, b.ProjectID, b.ID))
		if b.Notes != "" {
			result.WriteString(fmt.Sprintf("  Notes: %s\n", b.Notes))
		}
	}
	return mcp.NewToolResponseText(result.String()), nil
}

func (s *Server) handleBookingDelete(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	bookings, ok := s.storage.(storage.BookingStorage)
	if !ok {
		return mcp.NewToolResponseText("Bookings are not supported by the current storage backend."), nil
	}

	id, err := req.String("id")
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	if err := bookings.DeleteBooking(id); err != nil {
		log.Error("MCP booking deletion failed", "error", err, "id", id)
		return nil, mcp.NewToolErrorInternal("failed to delete booking: " + err.Error())
	}

	log.Info("MCP booking deleted", "id", id)
	return mcp.NewToolResponseText("Booking deleted successfully"), nil
}

// Utility functions

func (s *Server) generateID(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-")) + "-" + time.Now().Format("20060102150405")
}

func (s *Server) formatProjectSummary(project *model.Project) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Name: %s\n", project.Name))
	result.WriteString(fmt.Sprintf("ID: %s\n", project.ID))
	result.WriteString(fmt.Sprintf("Status: %s\n", project.Status))
	if project.Client != "" {
		result.WriteString(fmt.Sprintf("Client: %s\n", project.Client))
	}
	if project.SiteAddress != "" {
		result.WriteString(fmt.Sprintf("Site: %s\n", project.SiteAddress))
	}
	if project.Description != "" {
		result.WriteString(fmt.Sprintf("Description: %s\n", project.Description))
	}
	return result.String()
}

func (s *Server) formatDeviceSummary(device *model.Device) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Name: %s\n", device.Name))
	result.WriteString(fmt.Sprintf("ID: %s\n", device.ID))
	result.WriteString(fmt.Sprintf("Project: %s\n", device.ProjectID))
	if device.DeviceType != "" {
		result.WriteString(fmt.Sprintf("Type: %s\n", device.DeviceType))
	}
	if device.Category != "" {
		result.WriteString(fmt.Sprintf("Category: %s\n", device.Category))
	}
	if device.MakeModel != "" {
		result.WriteString(fmt.Sprintf("Make/Model: %s\n", device.MakeModel))
	}
	if device.Room != "" {
		result.WriteString(fmt.Sprintf("Room: %s\n", device.Room))
	}
	if device.IPAddress != "" {
		result.WriteString(fmt.Sprintf("IP: %s (VLAN %d)\n", device.IPAddress, device.VLANID))
	}
	if device.MACAddress != "" {
		result.WriteString(fmt.Sprintf("MAC: %s\n", device.MACAddress))
	}
	if device.Notes != "" {
		result.WriteString(fmt.Sprintf("Notes: %s\n", device.Notes))
	}
	return result.String()
}

// GetHTTPHandler returns the HTTP handler for the MCP server
func (s *Server) GetHTTPHandler() http.HandlerFunc {
	return s.HandleRequest
}

// LogStartup logs MCP server startup information
func (s *Server) LogStartup() {
	log.Info("MCP Server initialized", "version", "1.0.0")
	if s.bearerToken != "" {
		log.Info("MCP authentication enabled", "type", "Bearer token")
	} else {
		log.Info("MCP authentication disabled")
	}
	tools := s.mcpServer.ListTools()
	log.Info("MCP tools registered", "count", len(tools))
	for _, tool := range tools {
		log.Debug("MCP tool registered", "name", tool.Name, "description", tool.Description)
	}
}
