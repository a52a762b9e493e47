package attendance

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/classroomhq/faceattend/internal/notify"
)

// Load fetches the class roster and the session attendance list. Each fetch
// runs at most once per session; use Reload to fetch again. A failed fetch
// emits an error notification and leaves previously loaded data in place.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	needRoster := !s.rosterLoaded && s.keys.ClassID != ""
	needAttendance := !s.attendanceReady && s.keys.ClassID != "" && s.keys.SessionDate != ""
	if needRoster {
		s.rosterLoaded = true
	}
	if needAttendance {
		s.attendanceReady = true
	}
	s.mu.Unlock()

	return s.fetch(ctx, needRoster, needAttendance)
}

// Reload fetches the roster and attendance list again
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.rosterLoaded = s.keys.ClassID != ""
	s.attendanceReady = s.keys.ClassID != "" && s.keys.SessionDate != ""
	roster, attendance := s.rosterLoaded, s.attendanceReady
	s.mu.Unlock()

	return s.fetch(ctx, roster, attendance)
}

func (s *Session) fetch(ctx context.Context, roster, attendance bool) error {
	var g errgroup.Group

	if roster {
		g.Go(func() error {
			students, err := s.cfg.API.ListClassStudents(ctx, s.keys.ClassID)
			if err != nil {
				slog.Error("Failed to load class roster", "class_id", s.keys.ClassID, "err", err)
				s.cfg.Notifier.Notify(notify.Notification{Level: notify.Error, Message: "Could not load the student list"})
				return fmt.Errorf("failed to load roster: %w", err)
			}
			s.mu.Lock()
			s.students = students
			s.mu.Unlock()
			slog.Debug("Loaded class roster", "class_id", s.keys.ClassID, "students", len(students))
			return nil
		})
	}

	if attendance {
		g.Go(func() error {
			records, err := s.cfg.API.ListSessionAttendance(ctx, s.keys.ClassID, s.keys.SessionDate)
			if err != nil {
				slog.Error("Failed to load session attendance", "class_id", s.keys.ClassID, "session_date", s.keys.SessionDate, "err", err)
				s.cfg.Notifier.Notify(notify.Notification{Level: notify.Error, Message: "Could not load attendance data"})
				return fmt.Errorf("failed to load attendance: %w", err)
			}
			s.mu.Lock()
			s.records = records
			s.mu.Unlock()
			slog.Debug("Loaded session attendance", "class_id", s.keys.ClassID, "records", len(records))
			return nil
		})
	}

	return g.Wait()
}
