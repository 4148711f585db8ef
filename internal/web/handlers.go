package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/JonMunkholm/jobtracker/internal/core"
	"github.com/JonMunkholm/jobtracker/internal/logging"
)

// maxCaptureBody bounds a single captured application.
const maxCaptureBody = 64 << 10

// handleExport downloads every application of the owner as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.Export(r.Context(), ownerID(r))
	if err != nil {
		s.respondError(w, r, err, core.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", core.ExportContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+core.ExportFileName(time.Now())+`"`)
	if err := core.WriteCSV(w, records); err != nil {
		logging.FromContext(r.Context()).Error("write export", "error", err, "records", len(records))
	}
}

type applicationsResponse struct {
	Applications []core.DataRecord `json:"applications"`
	Count        int               `json:"count"`
}

// handleListApplications returns every application of the owner.
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListApplications(r.Context(), ownerID(r))
	if err != nil {
		s.respondError(w, r, err, core.HTTPStatus(err))
		return
	}
	if records == nil {
		records = []core.DataRecord{}
	}
	writeJSON(w, http.StatusOK, applicationsResponse{Applications: records, Count: len(records)})
}

// captureErrorResponse adds per-field errors to ErrorResponse.
type captureErrorResponse struct {
	ErrorResponse
	Errors []core.ImportError `json:"errors"`
}

// handleCaptureApplication saves one application sent as JSON, typically by
// the browser extension.
func (s *Server) handleCaptureApplication(w http.ResponseWriter, r *http.Request) {
	var req core.CaptureRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCaptureBody))
	if err := dec.Decode(&req); err != nil {
		s.respondError(w, r, errors.Join(errBadBody, err), http.StatusBadRequest)
		return
	}

	rec, err := s.service.CaptureApplication(r.Context(), ownerID(r), req)
	if err != nil {
		var capErr *core.CaptureError
		if errors.As(err, &capErr) {
			logging.FromContext(r.Context()).Info("capture rejected", "errors", len(capErr.Errors))
			writeJSON(w, http.StatusBadRequest, captureErrorResponse{
				ErrorResponse: newErrorResponse(core.MapError(err)),
				Errors:        capErr.Errors,
			})
			return
		}
		s.respondError(w, r, err, core.HTTPStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

type healthResponse struct {
	Status   string                   `json:"status"`
	Database string                   `json:"database"`
	Imports  core.ImportLimiterStatus `json:"imports"`
}

// handleHealth reports database reachability and import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok", Imports: s.service.LimiterStatus()}
	status := http.StatusOK
	if err := s.service.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
