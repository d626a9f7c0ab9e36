package alumni

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"alumnisync-backend/lib/scrapers/linkedin"
)

// Year tolerates the shapes the extension sends: JSON numbers, numeric
// strings, null. anything else decodes to 0 (absent).
type Year int

func (y *Year) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n, ok := ParseYear(raw)
	if !ok {
		*y = 0
		return nil
	}
	*y = Year(n)
	return nil
}

type importRecord struct {
	FullName        string `json:"fullName"`
	LinkedinUrl     string `json:"linkedinUrl"`
	ProfileImageUrl string `json:"profileImageUrl"`
	Degree          string `json:"degree"`
	EntryYear       Year   `json:"entryYear"`
	GradYear        Year   `json:"gradYear"`
	CurrentCompany  string `json:"currentCompany"`
	CurrentJobTitle string `json:"currentJobTitle"`
	CompanyLogo     string `json:"companyLogo"`
	Email           string `json:"email"`
}

type importRequest struct {
	// a {type: "DEBUG", message: ...} body is a log line from the
	// extension, not data
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Data    []importRecord `json:"data"`
}

type API struct {
	service Service
	apiKey  string
}

func NewAPI(service Service, apiKey string) API {
	return API{service: service, apiKey: apiKey}
}

func (a API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/alumni/import", a.handleImport)
	mux.HandleFunc("/api/alumni/progress", a.handleProgress)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (a API) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"success": false, "error": "method not allowed",
		})
		return
	}

	var req importRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 10<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "error": "invalid json",
		})
		return
	}

	// debug messages are accepted unauthenticated so a misconfigured
	// extension can still phone home about it
	if req.Type == "DEBUG" {
		slog.InfoContext(r.Context(), "extension debug message", "message", req.Message)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	if r.Header.Get("x-api-key") != a.apiKey {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false, "error": "unauthorized",
		})
		return
	}

	records := make([]linkedin.Profile, 0, len(req.Data))
	for _, rec := range req.Data {
		records = append(records, linkedin.Profile{
			FullName:        rec.FullName,
			ProfileURL:      rec.LinkedinUrl,
			AvatarURL:       rec.ProfileImageUrl,
			DegreeText:      rec.Degree,
			EntryYear:       int(rec.EntryYear),
			GradYear:        int(rec.GradYear),
			CurrentCompany:  rec.CurrentCompany,
			CurrentJobTitle: rec.CurrentJobTitle,
			CompanyLogoURL:  rec.CompanyLogo,
			Email:           rec.Email,
		})
	}

	result, err := a.service.Reconcile(r.Context(), records)
	if err != nil {
		slog.ErrorContext(r.Context(), "reconcile failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false, "error": "storage failure",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   result.SuccessCount,
		"errors":  result.ErrorCount,
		"logs":    result.Logs,
	})
}

func (a API) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"success": false, "error": "method not allowed",
		})
		return
	}
	progress, err := a.service.Progress(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "progress query failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false, "error": "storage failure",
		})
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
