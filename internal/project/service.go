// ABOUTME: HTTP handlers for the project service: projects and prompts CRUD
// ABOUTME: Every single-resource operation runs the ownership check first

package project

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/2389/promptdeck/internal/auth"
	"github.com/2389/promptdeck/internal/httpapi"
	"github.com/2389/promptdeck/internal/store"
)

// Service implements the project service HTTP API.
type Service struct {
	projects store.ProjectStore
	prompts  store.PromptStore
	logger   *slog.Logger
}

// New creates a project service.
func New(projects store.ProjectStore, prompts store.PromptStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		projects: projects,
		prompts:  prompts,
		logger:   logger.With("component", "project"),
	}
}

// RegisterRoutes registers the project endpoints on the mux. All routes
// must be placed behind auth.Middleware by the caller.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /projects", s.handleCreateProject)
	mux.HandleFunc("GET /projects", s.handleListProjects)
	mux.HandleFunc("GET /projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /projects/{id}", s.handleDeleteProject)

	mux.HandleFunc("POST /projects/{id}/prompts", s.handleCreatePrompt)
	mux.HandleFunc("GET /projects/{id}/prompts", s.handleListPrompts)
	mux.HandleFunc("PUT /projects/{id}/prompts/{promptID}", s.handleUpdatePrompt)
	mux.HandleFunc("DELETE /projects/{id}/prompts/{promptID}", s.handleDeletePrompt)
}

// ProjectRequest is the JSON body for creating or updating a project.
type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProjectResponse is the JSON representation of a project.
type ProjectResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// PromptRequest is the JSON body for creating or updating a prompt.
type PromptRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// PromptResponse is the JSON representation of a prompt.
type PromptResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	Version   int    `json:"version"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func projectResponse(p *store.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func promptResponse(p *store.Prompt) PromptResponse {
	return PromptResponse{
		ID:        p.ID,
		ProjectID: p.ProjectID,
		Name:      p.Name,
		Content:   p.Content,
		Version:   p.Version,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// loadOwnedProject loads a project and runs the ownership check. Both a
// missing project and an ownership mismatch answer 404 so callers cannot
// probe for other users' project IDs; internally the two stay distinct.
func (s *Service) loadOwnedProject(w http.ResponseWriter, r *http.Request, projectID string) (*store.Project, bool) {
	userID := auth.MustUserID(r.Context())

	project, err := s.projects.GetProject(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpapi.WriteError(w, http.StatusNotFound, "project not found")
			return nil, false
		}
		s.logger.Error("loading project", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}

	if err := auth.Authorize(project, userID); err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "project not found")
		return nil, false
	}

	return project, true
}

func (s *Service) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustUserID(r.Context())

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now().UTC()
	project := &store.Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.projects.CreateProject(r.Context(), project); err != nil {
		s.logger.Error("creating project", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, projectResponse(project))
}

func (s *Service) handleListProjects(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustUserID(r.Context())

	projects, err := s.projects.ListProjectsByUser(r.Context(), userID)
	if err != nil {
		s.logger.Error("listing projects", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		response = append(response, projectResponse(p))
	}
	httpapi.WriteJSON(w, http.StatusOK, response)
}

func (s *Service) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.loadOwnedProject(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, projectResponse(project))
}

func (s *Service) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.loadOwnedProject(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	project.Name = req.Name
	project.Description = req.Description
	project.UpdatedAt = time.Now().UTC()

	if err := s.projects.UpdateProject(r.Context(), project); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpapi.WriteError(w, http.StatusNotFound, "project not found")
			return
		}
		s.logger.Error("updating project", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, projectResponse(project))
}

func (s *Service) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.loadOwnedProject(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	if err := s.projects.DeleteProject(r.Context(), project.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpapi.WriteError(w, http.StatusNotFound, "project not found")
			return
		}
		s.logger.Error("deleting project", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "project deleted"})
}

func (s *Service) handleCreatePrompt(w http.ResponseWriter, r *http.Request) {
	project, ok := s.loadOwnedProject(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Content == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "name and content are required")
		return
	}

	now := time.Now().UTC()
	prompt := &store.Prompt{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		UserID:    project.UserID,
		Name:      req.Name,
		Content:   req.Content,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.prompts.CreatePrompt(r.Context(), prompt); err != nil {
		s.logger.Error("creating prompt", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, promptResponse(prompt))
}

func (s *Service) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	project, ok := s.loadOwnedProject(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	prompts, err := s.prompts.ListPromptsByProject(r.Context(), project.ID)
	if err != nil {
		s.logger.Error("listing prompts", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := make([]PromptResponse, 0, len(prompts))
	for _, p := range prompts {
		response = append(response, promptResponse(p))
	}
	httpapi.WriteJSON(w, http.StatusOK, response)
}

// loadOwnedPrompt loads a prompt within an already-authorized project.
// A prompt belonging to a different project answers 404.
func (s *Service) loadOwnedPrompt(w http.ResponseWriter, r *http.Request, projectID, promptID string) (*store.Prompt, bool) {
	prompt, err := s.prompts.GetPrompt(r.Context(), promptID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpapi.WriteError(w, http.StatusNotFound, "prompt not found")
			return nil, false
		}
		s.logger.Error("loading prompt", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}

	if prompt.ProjectID != projectID {
		httpapi.WriteError(w, http.StatusNotFound, "prompt not found")
		return nil, false
	}

	return prompt, true
}

func (s *Service) handleUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	project, ok := s.loadOwnedProject(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	prompt, ok := s.loadOwnedPrompt(w, r, project.ID, r.PathValue("promptID"))
	if !ok {
		return
	}

	var req PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Content == "" {
		httpapi.WriteError(w, http.StatusBadRequest, "name and content are required")
		return
	}

	prompt.Name = req.Name
	prompt.Content = req.Content
	prompt.Version++
	prompt.UpdatedAt = time.Now().UTC()

	if err := s.prompts.UpdatePrompt(r.Context(), prompt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpapi.WriteError(w, http.StatusNotFound, "prompt not found")
			return
		}
		s.logger.Error("updating prompt", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, promptResponse(prompt))
}

func (s *Service) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	project, ok := s.loadOwnedProject(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	prompt, ok := s.loadOwnedPrompt(w, r, project.ID, r.PathValue("promptID"))
	if !ok {
		return
	}

	if err := s.prompts.DeletePrompt(r.Context(), prompt.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpapi.WriteError(w, http.StatusNotFound, "prompt not found")
			return
		}
		s.logger.Error("deleting prompt", "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "prompt deleted"})
}
