package attendance

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classroomhq/faceattend/internal/camera"
	"github.com/classroomhq/faceattend/internal/credentials"
	"github.com/classroomhq/faceattend/internal/notify"
	"github.com/classroomhq/faceattend/internal/recognition"
	"github.com/classroomhq/faceattend/internal/roster"
)

// DefaultInterval is the capture cadence
const DefaultInterval = 2 * time.Second

// StatusRecognizing is shown after every recognition attempt
const StatusRecognizing = "Recognizing faces..."

var (
	ErrAlreadyOpen       = errors.New("session is already open")
	ErrSubmissionPending = errors.New("a frame submission is still pending")
)

// State of a capture session
type State string

const (
	Closed     State = "closed"
	Capturing  State = "capturing"
	Submitting State = "submitting"
)

// API is the part of the remote school API a session calls
type API interface {
	SubmitFrame(ctx context.Context, frame []byte, classID, sessionDate string) (recognition.Result, error)
	ListClassStudents(ctx context.Context, classID string) ([]roster.Student, error)
	ListSessionAttendance(ctx context.Context, classID, sessionDate string) ([]roster.Record, error)
}

// Recognized is a student matched during the current session
type Recognized struct {
	StudentID roster.StudentID `json:"student_id" yaml:"student_id"`
	FullName  string           `json:"full_name" yaml:"full_name"`
	At        time.Time        `json:"at" yaml:"at"`
}

// Stats counts what the ticker did during one open session
type Stats struct {
	Ticks     int `json:"ticks" yaml:"ticks"`
	Submitted int `json:"submitted" yaml:"submitted"`
	Dropped   int `json:"dropped" yaml:"dropped"`
	NoFrame   int `json:"no_frame" yaml:"no_frame"`
	Halted    int `json:"halted" yaml:"halted"`
}

// Summary describes a session at the moment it was closed
type Summary struct {
	RunID      string         `json:"run_id" yaml:"run_id"`
	Keys       Keys           `json:"keys" yaml:"keys"`
	OpenedAt   time.Time      `json:"opened_at" yaml:"opened_at"`
	ClosedAt   time.Time      `json:"closed_at" yaml:"closed_at"`
	Recognized []Recognized   `json:"recognized" yaml:"recognized"`
	Roster     []roster.Entry `json:"roster" yaml:"roster"`
	Stats      Stats          `json:"stats" yaml:"stats"`
}

// Config wires a session to its collaborators
type Config struct {
	API       API
	Camera    camera.Device
	Tokens    credentials.Store
	Notifier  notify.Notifier
	Navigator notify.Navigator
	Interval  time.Duration
	// OnClose receives the summary of every closed session.
	OnClose func(Summary)
}

// Session is the face attendance capture workflow for one class and date.
//
// A ticker fires every Interval while the session is open. Each tick captures
// a frame and submits it, unless a submission is already in flight, in which
// case the tick is dropped. Closing the session promotes every recognized
// student to Present in the roster.
type Session struct {
	keys Keys
	cfg  Config

	mu         sync.Mutex
	open       bool
	busy       bool
	pending    int
	halted     bool
	generation uint64
	runID      string
	openedAt   time.Time
	source     camera.Source
	stop       context.CancelFunc
	loopDone   chan struct{}
	recognized []Recognized
	seen       map[roster.StudentID]bool
	status     string
	stats      Stats

	students        []roster.Student
	records         []roster.Record
	promoted        []roster.StudentID
	promotedSet     map[roster.StudentID]bool
	rosterLoaded    bool
	attendanceReady bool

	inflight sync.WaitGroup
}

// New creates a closed session for the given keys
func New(keys Keys, cfg Config) *Session {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Multi(nil)
	}
	return &Session{
		keys:        keys,
		cfg:         cfg,
		seen:        make(map[roster.StudentID]bool),
		promotedSet: make(map[roster.StudentID]bool),
	}
}

// Keys returns the class and date the session is bound to
func (s *Session) Keys() Keys {
	return s.keys
}

// Open acquires the camera and arms the capture ticker. The recognized set
// starts empty on every open. Open fails with ErrSubmissionPending while a
// submission from a previous open is still outstanding.
func (s *Session) Open(ctx context.Context) error {
	if err := s.keys.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	if s.pending > 0 {
		s.mu.Unlock()
		return ErrSubmissionPending
	}
	s.mu.Unlock()

	var source camera.Source
	if s.cfg.Camera != nil {
		src, err := s.cfg.Camera.Open(ctx)
		if err != nil {
			return err
		}
		source = src
	}

	loopCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.open = true
	s.halted = false
	s.generation++
	s.runID = uuid.NewString()
	s.openedAt = time.Now()
	s.source = source
	s.stop = stop
	s.loopDone = done
	s.recognized = nil
	s.seen = make(map[roster.StudentID]bool)
	s.status = ""
	s.stats = Stats{}
	gen := s.generation
	s.mu.Unlock()

	slog.Info("Attendance session opened", "class_id", s.keys.ClassID, "session_date", s.keys.SessionDate, "interval", s.cfg.Interval)

	go s.loop(loopCtx, gen, done)
	return nil
}

func (s *Session) loop(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.release(gen)
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// release frees the camera when the ticker stops without an explicit
// Close, for example when the owning context is cancelled. The session
// stays open so a later Close still reconciles what was recognized.
func (s *Session) release(gen uint64) {
	s.mu.Lock()
	if s.generation != gen || s.source == nil {
		s.mu.Unlock()
		return
	}
	src := s.source
	s.source = nil
	s.mu.Unlock()

	if err := src.Close(); err != nil {
		slog.Warn("Failed to release camera", "err", err)
	}
}

// Close stops capturing and reconciles the recognized students into the
// roster. Closing an already closed session reports that nobody was
// recognized.
func (s *Session) Close() Summary {
	s.mu.Lock()
	wasOpen := s.open
	s.open = false
	s.busy = false
	s.halted = false
	s.generation++

	stop, done, src := s.stop, s.loopDone, s.source
	s.stop, s.loopDone, s.source = nil, nil, nil

	recognized := s.recognized
	s.recognized = nil
	s.seen = make(map[roster.StudentID]bool)

	for _, r := range recognized {
		if !s.promotedSet[r.StudentID] {
			s.promotedSet[r.StudentID] = true
			s.promoted = append(s.promoted, r.StudentID)
		}
	}

	summary := Summary{
		RunID:      s.runID,
		Keys:       s.keys,
		OpenedAt:   s.openedAt,
		ClosedAt:   time.Now(),
		Recognized: recognized,
		Roster:     s.joined(),
		Stats:      s.stats,
	}
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	if done != nil {
		<-done
	}
	if src != nil {
		if err := src.Close(); err != nil {
			slog.Warn("Failed to release camera", "err", err)
		}
	}

	if len(recognized) > 0 {
		s.cfg.Notifier.Notify(notify.Notification{Level: notify.Success, Message: "Automatic attendance completed"})
	} else {
		s.cfg.Notifier.Notify(notify.Notification{Level: notify.Info, Message: "No students were checked in"})
	}

	if wasOpen {
		slog.Info("Attendance session closed",
			"class_id", s.keys.ClassID,
			"session_date", s.keys.SessionDate,
			"recognized", len(recognized),
			"submitted", summary.Stats.Submitted,
			"dropped", summary.Stats.Dropped)
	}

	if s.cfg.OnClose != nil {
		s.cfg.OnClose(summary)
	}
	return summary
}

// State reports where the session is in its lifecycle
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.open:
		return Closed
	case s.busy:
		return Submitting
	default:
		return Capturing
	}
}

// Busy reports whether a submission is in flight
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Status returns the last human readable status line
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Stats returns the ticker counters of the current open session
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Recognized returns the students matched since the session was opened
func (s *Session) Recognized() []Recognized {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recognized, len(s.recognized))
	copy(out, s.recognized)
	return out
}

// Roster returns the class roster joined with attendance statuses
func (s *Session) Roster() []roster.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joined()
}

// joined applies local promotions on top of the fetched attendance list, so
// they survive a Reload. Called with s.mu held.
func (s *Session) joined() []roster.Entry {
	return roster.Join(s.students, roster.Promote(s.records, s.promoted))
}

// Wait blocks until every submission started so far has returned
func (s *Session) Wait() {
	s.inflight.Wait()
}
