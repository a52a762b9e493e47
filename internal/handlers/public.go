package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/classroomhq/faceattend/internal/attendance"
	"github.com/classroomhq/faceattend/internal/link"
	"github.com/classroomhq/faceattend/internal/recognition"
	"github.com/classroomhq/faceattend/internal/report"
)

const maxImageSize = 10 * 1024 * 1024

type publicSession struct {
	ClassID     string         `json:"class_id"`
	SessionDate string         `json:"session_date"`
	Link        string         `json:"link"`
	Report      *report.Report `json:"report,omitempty"`
}

type checkIn struct {
	StudentID string `json:"student_id"`
	FullName  string `json:"full_name"`
	Message   string `json:"message"`
}

// HandlePublic is the entry point behind the shareable link. GET describes
// the session, POST submits one frame for recognition.
func (h *Handler) HandlePublic(w http.ResponseWriter, r *http.Request) {
	classID, sessionDate, err := link.FromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	keys := attendance.Keys{ClassID: classID, SessionDate: sessionDate}

	switch r.Method {
	case "GET":
		resp := publicSession{
			ClassID:     classID,
			SessionDate: sessionDate,
			Link:        link.Shareable(h.origin, classID, sessionDate),
		}
		if rep, ok := h.reportStore.Get(keys); ok {
			resp.Report = rep
		}
		h.writeJSON(w, resp)
	case "POST":
		h.handlePublicSubmit(w, r, keys)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePublicSubmit(w http.ResponseWriter, r *http.Request, keys attendance.Keys) {
	if h.recognizer == nil {
		h.writeError(w, "Recognition service is not configured", http.StatusServiceUnavailable)
		return
	}

	var (
		frame []byte
		err   error
	)
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		frame, err = readJSONImage(r)
	} else {
		frame, err = readFormImage(r)
	}
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(frame)); err != nil {
		h.writeError(w, "Image could not be decoded: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.recognizer.SubmitPublicFrame(r.Context(), frame, keys.ClassID, keys.SessionDate)
	if err != nil {
		h.writeRecognitionError(w, err)
		return
	}

	h.reportStore.Record(keys, attendance.Recognized{StudentID: result.StudentID, FullName: result.FullName, At: time.Now()})
	slog.Info("Public check-in", "class_id", keys.ClassID, "session_date", keys.SessionDate, "student_id", result.StudentID)

	h.writeJSON(w, checkIn{
		StudentID: string(result.StudentID),
		FullName:  result.FullName,
		Message:   "Checked in: " + result.FullName,
	})
}

func (h *Handler) writeRecognitionError(w http.ResponseWriter, err error) {
	switch recognition.KindOf(err) {
	case recognition.NoMatch:
		h.writeError(w, "No matching student found", http.StatusNotFound)
	case recognition.InvalidInput:
		msg := "Submitted data is invalid"
		if detail := recognition.DetailOf(err); detail != "" {
			msg += ": " + detail
		}
		h.writeError(w, msg, http.StatusUnprocessableEntity)
	case recognition.Forbidden:
		h.writeError(w, "This session does not accept public check-ins", http.StatusForbidden)
	case recognition.Unauthenticated:
		h.writeError(w, "Recognition service rejected the request", http.StatusUnauthorized)
	default:
		slog.Error("Recognition request failed", "err", err)
		h.writeError(w, "Could not reach the recognition service", http.StatusBadGateway)
	}
}

func readJSONImage(r *http.Request) ([]byte, error) {
	var request struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 2*maxImageSize)).Decode(&request); err != nil {
		return nil, fmt.Errorf("Invalid JSON: %w", err)
	}
	if request.Image == "" {
		return nil, errors.New("image is required")
	}

	// accept data URLs as produced by canvas.toDataURL
	data := request.Image
	if strings.HasPrefix(data, "data:") {
		if i := strings.Index(data, ","); i >= 0 {
			data = data[i+1:]
		}
	}
	frame, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("image is not valid base64: %w", err)
	}
	if len(frame) >= maxImageSize {
		return nil, errors.New("Image too large (max 10MB)")
	}
	return frame, nil
}

func readFormImage(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("image")
	if err != nil {
		file, _, err = r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("Failed to read image: %w", err)
		}
	}
	defer file.Close()

	frame, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("Failed to read image contents: %w", err)
	}
	if len(frame) >= maxImageSize {
		return nil, errors.New("Image too large (max 10MB)")
	}
	return frame, nil
}
