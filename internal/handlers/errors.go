package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/httpx"
	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/services"
)

const dateLayout = "2006-01-02"

// writeServiceError maps the service error taxonomy onto HTTP statuses:
// not-found -> 404, business-rule violation -> 400 with its reason,
// anything else -> 500 without internals.
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if reason, ok := services.IsInvalidOperation(err); ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_operation", map[string]string{"reason": reason})
		return
	}
	httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
}

func idParam(r *http.Request) (uint, bool) {
	v := r.URL.Query().Get("id")
	if v == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}

func pageParams(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}
