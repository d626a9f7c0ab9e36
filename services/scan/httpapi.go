package scan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

type API struct {
	service *Service
	apiKey  string
	// resolves the profiles an enrich job should visit when the
	// request doesn't name any
	enrichTargets func(ctx context.Context, limit int) ([]string, error)
}

func NewAPI(service *Service, apiKey string) API {
	return API{service: service, apiKey: apiKey}
}

func (a API) WithEnrichTargets(fn func(ctx context.Context, limit int) ([]string, error)) API {
	a.enrichTargets = fn
	return a
}

func (a API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/scan/start", a.handleStart)
	mux.HandleFunc("/api/scan/stop", a.handleStop)
	mux.HandleFunc("/api/scan/status", a.handleStatus)
}

func (a API) authorized(r *http.Request) bool {
	return r.Header.Get("x-api-key") == a.apiKey
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (a API) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		write(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	if !a.authorized(r) {
		write(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		write(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	if req.Mode == ModeEnrich && len(req.ProfileURLs) == 0 && a.enrichTargets != nil {
		urls, err := a.enrichTargets(r.Context(), req.MaxUnits)
		if err != nil {
			write(w, http.StatusInternalServerError, map[string]any{"error": "failed to resolve enrich targets"})
			return
		}
		req.ProfileURLs = urls
	}

	status, err := a.service.Start(r.Context(), req)
	if errors.Is(err, ErrScanActive) {
		write(w, http.StatusConflict, map[string]any{"error": err.Error()})
		return
	}
	if err != nil {
		write(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	write(w, http.StatusOK, status)
}

func (a API) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		write(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	if !a.authorized(r) {
		write(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	stopped := a.service.Stop()
	write(w, http.StatusOK, map[string]any{"stopping": stopped})
}

func (a API) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		write(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	write(w, http.StatusOK, a.service.Status())
}
