package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/httpx"
	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/services"
)

type ConversionHandler struct {
	DB  *gorm.DB
	Svc *services.ConversionService
}

func NewConversionHandler(db *gorm.DB) *ConversionHandler {
	return &ConversionHandler{DB: db, Svc: services.NewConversionService(db)}
}

// convertRequest is the wire form of services.ConvertRequest (dates as YYYY-MM-DD).
type convertRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	InitialStatus string `json:"initial_status"`
	StartDate     string `json:"start_date"`
	DurationDays  int    `json:"duration_days"`
	StageMode     string `json:"stage_mode"`
	Policy        string `json:"policy"`
}

func (req *convertRequest) toService() (services.ConvertRequest, error) {
	out := services.ConvertRequest{
		Name:          req.Name,
		Description:   req.Description,
		InitialStatus: req.InitialStatus,
		DurationDays:  req.DurationDays,
		StageMode:     services.StageMode(req.StageMode),
		Policy:        services.AllocationPolicy(req.Policy),
	}
	if req.StartDate != "" {
		start, err := parseDate(req.StartDate)
		if err != nil {
			return out, err
		}
		out.StartDate = start
	}
	return out, nil
}

// Convert: POST /dqes/convert?id=
func (h *ConversionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var wire convertRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req, err := wire.toService()
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", map[string]string{"start_date": "expected YYYY-MM-DD"})
		return
	}
	project, err := h.Svc.Convert(id, req, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

// Link: POST /dqes/link?id=&project_id=
func (h *ConversionHandler) Link(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req struct {
		ProjectID uint `json:"project_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProjectID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"project_id": "required"})
		return
	}
	project, err := h.Svc.LinkToProject(id, req.ProjectID, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// Preview: POST /dqes/convert/preview?id= — read-only forecast.
func (h *ConversionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var wire convertRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req, err := wire.toService()
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_date", map[string]string{"start_date": "expected YYYY-MM-DD"})
		return
	}
	preview, err := h.Svc.Preview(id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}
