package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/httpx"
	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/services"
)

type ProjectHandler struct {
	DB  *gorm.DB
	Svc *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{DB: db, Svc: services.NewProjectService(db)}
}

// List: GET /projects?status=&limit=&page=
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	projects, total, err := h.Svc.List(services.ProjectListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": projects, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /projects — création manuelle, hors conversion.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var wire struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		ClientID    uint    `json:"client_id"`
		Status      string  `json:"status"`
		StartDate   string  `json:"start_date"`
		EndDate     string  `json:"end_date"`
		Budget      float64 `json:"budget"`
	}
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in := services.CreateProjectInput{
		Name:        wire.Name,
		Description: wire.Description,
		ClientID:    wire.ClientID,
		Status:      wire.Status,
		Budget:      wire.Budget,
	}
	if wire.StartDate != "" {
		start, err := parseDate(wire.StartDate)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_date", map[string]string{"start_date": "expected YYYY-MM-DD"})
			return
		}
		in.StartDate = start
	}
	if wire.EndDate != "" {
		end, err := parseDate(wire.EndDate)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_date", map[string]string{"end_date": "expected YYYY-MM-DD"})
			return
		}
		in.EndDate = end
	}
	project, err := h.Svc.Create(in, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

// Get: GET /projects/get?id= — projet avec ses étapes ordonnées.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	project, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}
