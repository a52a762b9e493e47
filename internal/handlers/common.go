package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/classroomhq/faceattend/internal/attendance"
	"github.com/classroomhq/faceattend/internal/recognition"
	"github.com/classroomhq/faceattend/internal/report"
	"github.com/classroomhq/faceattend/internal/storage"
)

// Recognizer submits frames through the unauthenticated entry point
type Recognizer interface {
	SubmitPublicFrame(ctx context.Context, frame []byte, classID, sessionDate string) (recognition.Result, error)
}

type Handler struct {
	reportStore *storage.ReportStore
	recognizer  Recognizer
	origin      string
}

// New builds the handlers. origin is the base URL used in shareable links.
func New(store *storage.ReportStore, recognizer Recognizer, origin string) *Handler {
	if store == nil {
		store = storage.New()
	}
	return &Handler{
		reportStore: store,
		recognizer:  recognizer,
		origin:      origin,
	}
}

// Routes registers every endpoint on mux
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("/api/sessions/", h.HandleSessionDetail)
	mux.HandleFunc("/face-attendance/public", h.HandlePublic)
	mux.HandleFunc("/qr.png", h.HandleQRCode)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "status", code)
	} else {
		slog.Warn(message, "status", code)
	}
	http.Error(w, message, code)
}

func (h *Handler) getReportOrError(w http.ResponseWriter, keys attendance.Keys) (*report.Report, bool) {
	r, exists := h.reportStore.Get(keys)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return r, true
}
