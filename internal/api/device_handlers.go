package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/martinsuchenak/avtrackd/internal/log"
	"github.com/martinsuchenak/avtrackd/internal/model"
	"github.com/martinsuchenak/avtrackd/internal/storage"
)

// allocationAttempts bounds how often a create is retried when a
// concurrent writer grabs the allocated address first.
const allocationAttempts = 3

// deviceResponse carries an optional allocation warning alongside the device
type deviceResponse struct {
	model.Device
	Warning string `json:"warning,omitempty"`
}

// listDevices handles GET /api/devices
func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	filter := &model.DeviceFilter{
		ProjectID:  r.URL.Query().Get("project_id"),
		Category:   r.URL.Query().Get("category"),
		DeviceType: r.URL.Query().Get("device_type"),
	}

	devices, err := h.storage.ListDevices(filter)
	if err != nil {
		log.Error("Failed to list devices", "error", err)
		h.internalError(w, err)
		return
	}

	log.Debug("Listed devices", "count", len(devices))
	h.writeJSON(w, http.StatusOK, devices)
}

// getDevice handles GET /api/devices/{id}
func (h *Handler) getDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "device ID required")
		return
	}

	device, err := h.storage.GetDevice(id)
	if err != nil {
		if errors.Is(err, storage.ErrDeviceNotFound) {
			log.Warn("Device not found", "id", id)
			h.writeError(w, http.StatusNotFound, "device not found")
			return
		}
		log.Error("Failed to get device", "error", err, "id", id)
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, device)
}

// createDevice handles POST /api/devices. A device posted without an
// address gets the next free one for its type or category. A device
// posted with an explicit address is rejected with 409 when another
// device in the same project already holds it.
func (h *Handler) createDevice(w http.ResponseWriter, r *http.Request) {
	var device model.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		log.Warn("Invalid device creation request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if device.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if device.ProjectID == "" {
		h.writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	if _, err := h.storage.GetProject(device.ProjectID); err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			h.writeError(w, http.StatusBadRequest, "project not found: "+device.ProjectID)
			return
		}
		h.internalError(w, err)
		return
	}

	if device.ID == "" {
		device.ID = generateID()
	}

	if device.IPAddress == "" && h.allocator != nil {
		warning, err := h.createDeviceWithAllocation(&device)
		if err != nil {
			if errors.Is(err, storage.ErrAddressInUse) {
				log.Warn("Device creation rejected - no free address", "name", device.Name,
					"project_id", device.ProjectID, "device_type", device.DeviceType,
					"category", device.Category)
				h.writeError(w, http.StatusConflict, "no free address available for device")
				return
			}
			log.Error("Failed to create device with allocated address", "error", err,
				"name", device.Name, "project_id", device.ProjectID)
			h.internalError(w, err)
			return
		}

		log.Info("Device created", "id", device.ID, "name", device.Name,
			"ip", device.IPAddress, "vlan", device.VLANID)
		h.writeJSON(w, http.StatusCreated, deviceResponse{Device: device, Warning: warning})
		return
	}

	if device.IPAddress != "" {
		if net.ParseIP(device.IPAddress) == nil {
			h.writeError(w, http.StatusBadRequest, "invalid IP address: "+device.IPAddress)
			return
		}
		if h.checker != nil {
			conflict, err := h.checker.HasConflict(device.ProjectID, device.IPAddress, "")
			if err != nil {
				h.internalError(w, err)
				return
			}
			if conflict.Found {
				log.Warn("Device creation rejected - address in use", "ip", device.IPAddress,
					"project_id", device.ProjectID, "holder", conflict.Device.ID)
				h.writeJSON(w, http.StatusConflict, conflict)
				return
			}
		}
	}

	if err := h.storage.CreateDevice(&device); err != nil {
		if errors.Is(err, storage.ErrAddressInUse) {
			h.writeError(w, http.StatusConflict, "IP address already in use: "+device.IPAddress)
			return
		}
		log.Error("Failed to create device", "error", err, "name", device.Name)
		h.internalError(w, err)
		return
	}

	log.Info("Device created", "id", device.ID, "name", device.Name, "ip", device.IPAddress)
	h.writeJSON(w, http.StatusCreated, device)
}

// createDeviceWithAllocation allocates an address for the device and
// persists it. The unique index on (project_id, ip_address) is the
// arbiter between concurrent writers, so an insert that loses the race
// comes back as ErrAddressInUse and the allocation is retried.
func (h *Handler) createDeviceWithAllocation(device *model.Device) (string, error) {
	var lastErr error
	for attempt := 0; attempt < allocationAttempts; attempt++ {
		result, err := h.allocator.NextAddress(device.ProjectID, device.DeviceType, device.Category)
		if err != nil {
			return "", err
		}

		device.IPAddress = result.Address
		device.VLANID = result.VLANID

		err = h.storage.CreateDevice(device)
		if err == nil {
			return result.Warning, nil
		}
		if !errors.Is(err, storage.ErrAddressInUse) {
			return "", err
		}

		log.Debug("Allocated address taken by concurrent writer, retrying",
			"ip", result.Address, "project_id", device.ProjectID, "attempt", attempt+1)
		lastErr = err
	}
	return "", lastErr
}

// updateDevice handles PUT /api/devices/{id}
func (h *Handler) updateDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "device ID required")
		return
	}

	var device model.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		log.Warn("Invalid device update request body", "error", err, "id", id)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	device.ID = id

	if device.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if device.ProjectID == "" {
		h.writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	if device.IPAddress != "" {
		if net.ParseIP(device.IPAddress) == nil {
			h.writeError(w, http.StatusBadRequest, "invalid IP address: "+device.IPAddress)
			return
		}
		if h.checker != nil {
			conflict, err := h.checker.HasConflict(device.ProjectID, device.IPAddress, id)
			if err != nil {
				h.internalError(w, err)
				return
			}
			if conflict.Found {
				log.Warn("Device update rejected - address in use", "ip", device.IPAddress,
					"project_id", device.ProjectID, "holder", conflict.Device.ID)
				h.writeJSON(w, http.StatusConflict, conflict)
				return
			}
		}
	}

	if err := h.storage.UpdateDevice(&device); err != nil {
		if errors.Is(err, storage.ErrDeviceNotFound) {
			h.writeError(w, http.StatusNotFound, "device not found")
			return
		}
		if errors.Is(err, storage.ErrAddressInUse) {
			h.writeError(w, http.StatusConflict, "IP address already in use: "+device.IPAddress)
			return
		}
		log.Error("Failed to update device", "error", err, "id", id)
		h.internalError(w, err)
		return
	}

	log.Info("Device updated", "id", id, "name", device.Name)
	h.writeJSON(w, http.StatusOK, device)
}

// deleteDevice handles DELETE /api/devices/{id}
func (h *Handler) deleteDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "device ID required")
		return
	}

	if err := h.storage.DeleteDevice(id); err != nil {
		if errors.Is(err, storage.ErrDeviceNotFound) {
			h.writeError(w, http.StatusNotFound, "device not found")
			return
		}
		log.Error("Failed to delete device", "error", err, "id", id)
		h.internalError(w, err)
		return
	}

	log.Info("Device deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// getNextAddress handles GET /api/projects/{id}/next-address. It previews
// the address a device of the given type or category would receive without
// reserving it.
func (h *Handler) getNextAddress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "project ID required")
		return
	}

	if h.allocator == nil {
		h.writeError(w, http.StatusNotImplemented, "address allocation not supported by storage backend")
		return
	}

	if _, err := h.storage.GetProject(id); err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			h.writeError(w, http.StatusNotFound, "project not found")
			return
		}
		h.internalError(w, err)
		return
	}

	deviceType := r.URL.Query().Get("device_type")
	if deviceType == "" {
		deviceType = r.URL.Query().Get("type")
	}
	category := r.URL.Query().Get("category")

	result, err := h.allocator.NextAddress(id, deviceType, category)
	if err != nil {
		log.Error("Failed to compute next address", "error", err, "project_id", id)
		h.internalError(w, err)
		return
	}

	log.Debug("Next address computed", "project_id", id, "device_type", deviceType,
		"category", category, "ip", result.Address, "resolution", result.Resolution.String())
	h.writeJSON(w, http.StatusOK, result)
}

// checkAddressConflict handles GET /api/projects/{id}/address-conflict
func (h *Handler) checkAddressConflict(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "project ID required")
		return
	}

	if h.checker == nil {
		h.writeError(w, http.StatusNotImplemented, "conflict checking not supported by storage backend")
		return
	}

	ip := r.URL.Query().Get("ip")
	if ip == "" {
		h.writeError(w, http.StatusBadRequest, "ip query parameter required")
		return
	}
	if net.ParseIP(ip) == nil {
		h.writeError(w, http.StatusBadRequest, "invalid IP address: "+ip)
		return
	}

	exclude := r.URL.Query().Get("exclude_device_id")
	if exclude == "" {
		exclude = r.URL.Query().Get("exclude")
	}

	conflict, err := h.checker.HasConflict(id, ip, exclude)
	if err != nil {
		log.Error("Failed to check address conflict", "error", err, "project_id", id, "ip", ip)
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, conflict)
}
