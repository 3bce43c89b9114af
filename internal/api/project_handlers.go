package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/martinsuchenak/avtrackd/internal/log"
	"github.com/martinsuchenak/avtrackd/internal/model"
	"github.com/martinsuchenak/avtrackd/internal/storage"
)

// listProjects handles GET /api/projects
func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	filter := &model.ProjectFilter{
		Name:   r.URL.Query().Get("name"),
		Client: r.URL.Query().Get("client"),
		Status: r.URL.Query().Get("status"),
	}

	projects, err := h.storage.ListProjects(filter)
	if err != nil {
		log.Error("Failed to list projects", "error", err)
		h.internalError(w, err)
		return
	}

	log.Debug("Listed projects", "count", len(projects))
	h.writeJSON(w, http.StatusOK, projects)
}

// getProject handles GET /api/projects/{id}
func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "project ID required")
		return
	}

	project, err := h.storage.GetProject(id)
	if err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			log.Warn("Project not found", "id", id)
			h.writeError(w, http.StatusNotFound, "project not found")
			return
		}
		log.Error("Failed to get project", "error", err, "id", id)
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, project)
}

// createProject handles POST /api/projects
func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var project model.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		log.Warn("Invalid project creation request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if project.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if project.Status == "" {
		project.Status = "active"
	}
	if !model.ValidStatus(project.Status) {
		h.writeError(w, http.StatusBadRequest, "invalid status: "+project.Status)
		return
	}

	if project.ID == "" {
		project.ID = generateID()
	}

	if err := h.storage.CreateProject(&project); err != nil {
		log.Error("Failed to create project", "error", err, "name", project.Name)
		h.internalError(w, err)
		return
	}

	log.Info("Project created", "id", project.ID, "name", project.Name)
	h.writeJSON(w, http.StatusCreated, project)
}

// updateProject handles PUT /api/projects/{id}
func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "project ID required")
		return
	}

	var project model.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		log.Warn("Invalid project update request body", "error", err, "id", id)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project.ID = id

	if project.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if project.Status != "" && !model.ValidStatus(project.Status) {
		h.writeError(w, http.StatusBadRequest, "invalid status: "+project.Status)
		return
	}

	if err := h.storage.UpdateProject(&project); err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			log.Warn("Project update failed - not found", "id", id)
			h.writeError(w, http.StatusNotFound, "project not found")
			return
		}
		log.Error("Failed to update project", "error", err, "id", id)
		h.internalError(w, err)
		return
	}

	log.Info("Project updated", "id", id, "name", project.Name)
	h.writeJSON(w, http.StatusOK, project)
}

// deleteProject handles DELETE /api/projects/{id}
func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "project ID required")
		return
	}

	if err := h.storage.DeleteProject(id); err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			h.writeError(w, http.StatusNotFound, "project not found")
			return
		}
		log.Error("Failed to delete project", "error", err, "id", id)
		h.internalError(w, err)
		return
	}

	log.Info("Project deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// getProjectDevices handles GET /api/projects/{id}/devices
func (h *Handler) getProjectDevices(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "project ID required")
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

	devices, err := h.storage.ListDevices(&model.DeviceFilter{ProjectID: id})
	if err != nil {
		log.Error("Failed to list project devices", "error", err, "project_id", id)
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, devices)
}

// cloneProjectResponse is the payload returned by a successful clone
type cloneProjectResponse struct {
	Project  model.Project  `json:"project"`
	Devices  []model.Device `json:"devices"`
	Warnings []string       `json:"warnings,omitempty"`
}

// cloneProject handles POST /api/projects/{id}/clone. Devices are copied
// into the new project; every device that held an address in the source
// gets a freshly allocated one in the destination rather than a verbatim
// copy of the source address.
func (h *Handler) cloneProject(w http.ResponseWriter, r *http.Request) {
	sourceID := r.PathValue("id")
	if sourceID == "" {
		h.writeError(w, http.StatusBadRequest, "project ID required")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Client      string `json:"client"`
		SiteAddress string `json:"site_address"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Invalid clone request body", "error", err, "source_id", sourceID)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	source, err := h.storage.GetProject(sourceID)
	if err != nil {
		if errors.Is(err, storage.ErrProjectNotFound) {
			h.writeError(w, http.StatusNotFound, "project not found")
			return
		}
		h.internalError(w, err)
		return
	}

	if h.allocator == nil {
		h.writeError(w, http.StatusNotImplemented, "address allocation not supported by storage backend")
		return
	}

	target := model.Project{
		ID:          generateID(),
		Name:        req.Name,
		Client:      req.Client,
		SiteAddress: req.SiteAddress,
		Status:      "active",
		Description: req.Description,
	}
	if target.Client == "" {
		target.Client = source.Client
	}

	if err := h.storage.CreateProject(&target); err != nil {
		log.Error("Failed to create clone target project", "error", err, "source_id", sourceID)
		h.internalError(w, err)
		return
	}

	sourceDevices, err := h.storage.ListDevices(&model.DeviceFilter{ProjectID: sourceID})
	if err != nil {
		log.Error("Failed to list source devices for clone", "error", err, "source_id", sourceID)
		h.internalError(w, err)
		return
	}

	var clones []model.Device
	var warnings []string

	for _, src := range sourceDevices {
		clone := src
		clone.ID = generateID()
		clone.ProjectID = target.ID
		clone.IPAddress = ""
		clone.VLANID = 0
		clone.MACAddress = ""

		if src.IPAddress != "" {
			warning, err := h.createDeviceWithAllocation(&clone)
			if err != nil {
				log.Error("Failed to create cloned device", "error", err,
					"source_device", src.ID, "project_id", target.ID)
				h.internalError(w, err)
				return
			}
			if warning != "" {
				warnings = append(warnings, src.Name+": "+warning)
			}
		} else {
			if err := h.storage.CreateDevice(&clone); err != nil {
				log.Error("Failed to create cloned device", "error", err, "source_device", src.ID)
				h.internalError(w, err)
				return
			}
		}

		clones = append(clones, clone)
	}

	log.Info("Project cloned", "source_id", sourceID, "target_id", target.ID,
		"devices", len(clones), "warnings", len(warnings))
	h.writeJSON(w, http.StatusCreated, cloneProjectResponse{
		Project:  target,
		Devices:  clones,
		Warnings: warnings,
	})
}
