package handlers

import (
	"net/http"
	"strings"

	"github.com/classroomhq/faceattend/internal/attendance"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, h.reportStore.GetAll())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail serves /api/sessions/{classId}/{sessionDate}
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		h.writeError(w, "Expected /api/sessions/{classId}/{sessionDate}", http.StatusBadRequest)
		return
	}
	keys := attendance.Keys{ClassID: parts[0], SessionDate: parts[1]}

	report, ok := h.getReportOrError(w, keys)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, report)
	case "DELETE":
		h.reportStore.Delete(keys)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
