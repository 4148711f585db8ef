package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/jobtracker/internal/core"
	"github.com/JonMunkholm/jobtracker/internal/logging"
	"github.com/JonMunkholm/jobtracker/internal/web/views"
)

// multipartOverhead is allowed on top of the file limit for form
// boundaries and headers.
const multipartOverhead = 1 << 20

// importResponse is the JSON summary of a finished import. Imported counts
// saved rows; Validated counts rows that passed validation, which differ
// only when the import was aborted.
type importResponse struct {
	ImportID   string             `json:"importId"`
	FileName   string             `json:"fileName"`
	Success    bool               `json:"success"`
	Imported   int                `json:"imported"`
	Validated  int                `json:"validated"`
	Skipped    int                `json:"skipped"`
	Aborted    bool               `json:"aborted,omitempty"`
	Errors     []core.ImportError `json:"errors"`
	DurationMS int64              `json:"durationMs"`
}

func newImportResponse(result *core.ImportResult) importResponse {
	errs := result.Errors
	if errs == nil {
		errs = []core.ImportError{}
	}
	return importResponse{
		ImportID:   result.ImportID,
		FileName:   result.FileName,
		Success:    result.Success,
		Imported:   result.Saved,
		Validated:  len(result.Imported),
		Skipped:    result.Skipped,
		Aborted:    result.Aborted,
		Errors:     errs,
		DurationMS: result.Duration.Milliseconds(),
	}
}

// handleImport accepts a multipart upload in the "file" field and imports
// it for the request owner. With ?stream=1 progress is sent as Server-Sent
// Events; HTMX requests get an HTML summary.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.Importer().MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, core.ErrFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	src := core.FileSource{Name: header.Filename, Size: header.Size, Reader: file}
	if err := s.service.Importer().CheckFile(src); err != nil {
		s.respondError(w, r, err, core.HTTPStatus(err))
		return
	}

	owner := ownerID(r)
	logger := logging.WithFields(r.Context(), "owner", owner, "file", header.Filename)
	logger.Info("import requested", "size", header.Size)

	if r.URL.Query().Get("stream") == "1" {
		s.streamImport(w, r, owner, src)
		return
	}

	result, err := s.service.Import(r.Context(), owner, src, nil)
	if err != nil {
		s.respondError(w, r, err, core.HTTPStatus(err))
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := views.ImportSummary(result).Render(r.Context(), w); err != nil {
			logger.Error("render import summary", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, newImportResponse(result))
}

// streamImport runs the import while writing "progress" events, then one
// "result" or "error" event.
func (s *Server) streamImport(w http.ResponseWriter, r *http.Request, owner string, src core.FileSource) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	logger := logging.FromContext(r.Context())
	eventID := 0
	send := func(event string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			logger.Error("encode event", "event", event, "error", err)
			return
		}
		eventID++
		fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", eventID, event, data)
		if err := rc.Flush(); err != nil {
			logger.Debug("flush event", "error", err)
		}
	}

	result, err := s.service.Import(r.Context(), owner, src, func(p core.ImportProgress) {
		send("progress", p)
	})
	if err != nil {
		userMsg := core.MapError(err)
		logger.Error("import failed", "error", err, "code", userMsg.Code)
		send("error", newErrorResponse(userMsg))
		return
	}
	send("result", newImportResponse(result))
}
