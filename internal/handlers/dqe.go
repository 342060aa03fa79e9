package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/auth"
	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/httpx"
	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/services"
)

type DQEHandler struct {
	DB  *gorm.DB
	Svc *services.DQEService
}

func NewDQEHandler(db *gorm.DB) *DQEHandler {
	return &DQEHandler{DB: db, Svc: services.NewDQEService(db)}
}

func actorID(r *http.Request) (uint, bool) {
	return auth.UserIDFromContext(r.Context())
}

// List: GET /dqes?status=&converted=&limit=&page=
func (h *DQEHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	filter := services.DQEListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}
	if v := r.URL.Query().Get("converted"); v != "" {
		converted := v == "1" || v == "true"
		filter.Converted = &converted
	}
	docs, total, err := h.Svc.List(filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": docs, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /dqes
func (h *DQEHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var in services.CreateDQEInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	doc, err := h.Svc.Create(in, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

// Get: GET /dqes/get?id=
func (h *DQEHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	doc, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

// Update: POST /dqes/update?id= — typed partial update of header fields.
func (h *DQEHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var patch services.DQEPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	doc, err := h.Svc.Update(id, patch, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

// Structure: POST /dqes/structure?id= — full lots/chapters/items replacement.
func (h *DQEHandler) Structure(w http.ResponseWriter, r *http.Request) {
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
		Lots []services.LotInput `json:"lots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	doc, err := h.Svc.ReplaceStructure(id, req.Lots, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

// Validate: POST /dqes/validate?id=
func (h *DQEHandler) Validate(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Svc.Validate(id, actor); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "validated"})
}

// Delete: POST /dqes/delete?id= — suppression logique.
func (h *DQEHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Svc.SoftDelete(id, actor); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// CanConvert: GET /dqes/can-convert?id=
func (h *DQEHandler) CanConvert(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	eligible, reason, err := h.Svc.CanConvert(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"eligible": eligible, "reason": reason})
}
