package handlers

import (
	"net/http"
	"strconv"

	"github.com/classroomhq/faceattend/internal/link"
)

// HandleQRCode renders the shareable link of a session as a PNG
func (h *Handler) HandleQRCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	classID, sessionDate, err := link.FromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	size := 256
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 64 || n > 2048 {
			h.writeError(w, "size must be between 64 and 2048", http.StatusBadRequest)
			return
		}
		size = n
	}

	png, err := link.QRCode(h.origin, classID, sessionDate, size)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
