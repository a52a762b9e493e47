package attendance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/classroomhq/faceattend/internal/camera"
	"github.com/classroomhq/faceattend/internal/notify"
	"github.com/classroomhq/faceattend/internal/recognition"
)

// Tick runs one capture step and reports whether a submission was started.
// A tick is a no-op when the session is closed, a submission is in flight,
// the operator must log in again, or the camera has no frame.
func (s *Session) Tick(ctx context.Context) bool {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return false
	}
	s.stats.Ticks++
	if s.busy {
		s.stats.Dropped++
		s.mu.Unlock()
		slog.Debug("Dropping tick, submission in flight", "class_id", s.keys.ClassID)
		return false
	}
	if !s.canSubmit() {
		s.stats.Halted++
		s.mu.Unlock()
		return false
	}
	src := s.source
	gen := s.generation
	// Reserve the slot before capturing so a concurrent tick cannot slip in.
	s.busy = true
	s.mu.Unlock()

	frame, err := s.capture(ctx, src)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return false
	}
	if err != nil {
		s.busy = false
		s.stats.NoFrame++
		s.mu.Unlock()
		if !errors.Is(err, camera.ErrNotReady) {
			slog.Warn("Failed to capture frame", "err", err)
		}
		return false
	}
	s.stats.Submitted++
	s.pending++
	s.inflight.Add(1)
	s.mu.Unlock()

	go s.submit(ctx, gen, frame)
	return true
}

// canSubmit is false after an authentication failure until a token is
// stored again. Called with s.mu held.
func (s *Session) canSubmit() bool {
	if !s.halted {
		return true
	}
	if s.cfg.Tokens == nil {
		return false
	}
	if _, err := s.cfg.Tokens.Token(); err != nil {
		return false
	}
	s.halted = false
	return true
}

func (s *Session) capture(ctx context.Context, src camera.Source) (*camera.Frame, error) {
	if src == nil {
		return nil, camera.ErrNotReady
	}
	return src.Capture(ctx)
}

// submit sends one frame and merges the result. Results that arrive after
// the session was closed or reopened are discarded.
func (s *Session) submit(ctx context.Context, gen uint64, frame *camera.Frame) {
	defer s.inflight.Done()

	result, err := s.cfg.API.SubmitFrame(ctx, frame.Data, s.keys.ClassID, s.keys.SessionDate)

	var notes []notify.Notification
	redirect := false

	s.mu.Lock()
	s.pending--
	if s.generation != gen {
		s.mu.Unlock()
		slog.Debug("Discarding recognition result for a closed session", "class_id", s.keys.ClassID)
		return
	}
	s.busy = false
	s.status = StatusRecognizing

	if err != nil && ctx.Err() != nil {
		// the session is shutting down; the failure says nothing about the service
		slog.Debug("Submission cancelled", "class_id", s.keys.ClassID, "err", err)
	} else if err != nil {
		notes, redirect = s.failure(err)
	} else if !s.seen[result.StudentID] {
		s.seen[result.StudentID] = true
		s.recognized = append(s.recognized, Recognized{
			StudentID: result.StudentID,
			FullName:  result.FullName,
			At:        time.Now(),
		})
		notes = append(notes, notify.Notification{Level: notify.Success, Message: "Checked in: " + result.FullName})
		slog.Info("Student recognized", "class_id", s.keys.ClassID, "student_id", result.StudentID, "full_name", result.FullName)
	}
	s.mu.Unlock()

	if redirect && s.cfg.Navigator != nil {
		s.cfg.Navigator.RedirectToLogin()
	}
	for _, n := range notes {
		s.cfg.Notifier.Notify(n)
	}
}

// failure applies the error policy. Called with s.mu held.
func (s *Session) failure(err error) ([]notify.Notification, bool) {
	kind := recognition.KindOf(err)
	switch kind {
	case recognition.Unauthenticated:
		s.halted = true
		if s.cfg.Tokens != nil {
			if clearErr := s.cfg.Tokens.Clear(); clearErr != nil {
				slog.Error("Failed to clear stored token", "err", clearErr)
			}
		}
		slog.Warn("Recognition rejected credentials", "class_id", s.keys.ClassID, "err", err)
		return []notify.Notification{{Level: notify.Error, Message: "Login session expired. Please log in again"}}, true
	case recognition.Forbidden:
		slog.Warn("Not allowed to take attendance", "class_id", s.keys.ClassID, "err", err)
		return []notify.Notification{{Level: notify.Warning, Message: "You do not have permission to take attendance for this class"}}, false
	case recognition.InvalidInput:
		slog.Warn("Recognition rejected submission", "class_id", s.keys.ClassID, "err", err)
		return []notify.Notification{{Level: notify.Warning, Message: "Submitted data is invalid", Detail: recognition.DetailOf(err)}}, false
	case recognition.NoMatch:
		slog.Debug("No matching student", "class_id", s.keys.ClassID)
		return []notify.Notification{{Level: notify.Warning, Message: "No matching student found"}}, false
	default:
		slog.Warn("Recognition request failed", "class_id", s.keys.ClassID, "kind", kind.String(), "err", err)
		return []notify.Notification{{Level: notify.Warning, Message: "Could not reach the recognition service"}}, false
	}
}
