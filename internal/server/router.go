package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/auth"
	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/handlers"
	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/httpx"
	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/middleware"
	"github.com/wilfriedkonan/Saf-alu-ci-Api-sub000/internal/models"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	// Configure a user verifier so RequireAuth can ensure the user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	protect := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(http.HandlerFunc(h))
	}

	// --- Health endpoints ---
	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// Lightweight DB check (SELECT 1) – no detailed errors in body
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	//revive:enable:unused-parameter

	// Auth endpoints
	authHandler := handlers.NewAuthHandler(db)
	authHandler.Register(mux)

	// Client endpoints
	ch := handlers.NewClientHandler(db)
	mux.Handle("/clients", protect(listCreate(ch.List, ch.Create)))
	mux.Handle("/clients/get", protect(ch.Get))

	// DQE endpoints
	dh := handlers.NewDQEHandler(db)
	mux.Handle("/dqes", protect(listCreate(dh.List, dh.Create)))
	mux.Handle("/dqes/get", protect(dh.Get))
	mux.Handle("/dqes/update", protect(requirePost(dh.Update)))
	mux.Handle("/dqes/structure", protect(requirePost(dh.Structure)))
	mux.Handle("/dqes/validate", protect(requirePost(dh.Validate)))
	mux.Handle("/dqes/delete", protect(requirePost(dh.Delete)))
	mux.Handle("/dqes/can-convert", protect(dh.CanConvert))

	// Conversion endpoints
	cvh := handlers.NewConversionHandler(db)
	mux.Handle("/dqes/convert", protect(requirePost(cvh.Convert)))
	mux.Handle("/dqes/convert/preview", protect(requirePost(cvh.Preview)))
	mux.Handle("/dqes/link", protect(requirePost(cvh.Link)))

	// Project endpoints
	ph := handlers.NewProjectHandler(db)
	mux.Handle("/projects", protect(listCreate(ph.List, ph.Create)))
	mux.Handle("/projects/get", protect(ph.Get))

	return middleware.RequestID(withRecover(withLogging(auth.Middleware(mux))))
}

// listCreate routes GET to list and POST to create on a collection path.
func listCreate(list, create http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list(w, r)
		case http.MethodPost:
			create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	}
}

func requirePost(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		h(w, r)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s rid=%s", r.Method, r.URL.Path, time.Since(start), middleware.RequestIDFrom(r.Context()))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
