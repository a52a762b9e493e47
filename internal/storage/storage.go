package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/classroomhq/faceattend/internal/attendance"
	"github.com/classroomhq/faceattend/internal/report"
	"github.com/classroomhq/faceattend/internal/roster"
)

// ReportStore keeps the latest report of every session in memory, keyed by
// class and session date.
type ReportStore struct {
	reports map[string]*report.Report
	mu      sync.RWMutex
}

func New() *ReportStore {
	return &ReportStore{
		reports: make(map[string]*report.Report),
	}
}

// Get returns a copy of the stored report, so callers may read it while
// check-ins are recorded.
func (s *ReportStore) Get(keys attendance.Keys) (*report.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, exists := s.reports[keys.String()]
	if !exists {
		return nil, false
	}
	return clone(r), true
}

func (s *ReportStore) Set(r *report.Report) {
	keys := attendance.Keys{ClassID: r.ClassID, SessionDate: r.SessionDate}
	stored := clone(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[keys.String()] = stored
}

// GetAll returns copies of every report ordered by session date, newest first
func (s *ReportStore) GetAll() []*report.Report {
	s.mu.RLock()
	result := make([]*report.Report, 0, len(s.reports))
	for _, r := range s.reports {
		result = append(result, clone(r))
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].SessionDate != result[j].SessionDate {
			return result[i].SessionDate > result[j].SessionDate
		}
		return result[i].ClassID < result[j].ClassID
	})
	return result
}

func (s *ReportStore) Delete(keys attendance.Keys) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reports, keys.String())
}

// Record marks a student as checked in for the session. A session without a
// report gets an empty one; a student missing from its roster is added.
// The stored report is replaced, never modified in place.
func (s *ReportStore) Record(keys attendance.Keys, rec attendance.Recognized) *report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	var r *report.Report
	if existing, exists := s.reports[keys.String()]; exists {
		for _, seen := range existing.Recognized {
			if seen.StudentID == rec.StudentID {
				return clone(existing)
			}
		}
		r = clone(existing)
	} else {
		fresh := report.FromRoster(keys, nil)
		r = &fresh
	}

	r.Recognized = append(r.Recognized, rec)

	found := false
	for i := range r.Roster {
		if r.Roster[i].StudentID == rec.StudentID {
			r.Roster[i].Status = roster.Present
			found = true
			break
		}
	}
	if !found {
		r.Roster = append(r.Roster, roster.Entry{StudentID: rec.StudentID, FullName: rec.FullName, Status: roster.Present})
	}
	r.Present = roster.Count(r.Roster, roster.Present)
	r.Absent = roster.Count(r.Roster, roster.Absent)
	r.GeneratedAt = time.Now()

	s.reports[keys.String()] = r
	return clone(r)
}

func clone(r *report.Report) *report.Report {
	c := *r
	c.Recognized = slices.Clone(r.Recognized)
	c.Roster = slices.Clone(r.Roster)
	if r.Stats != nil {
		stats := *r.Stats
		c.Stats = &stats
	}
	return &c
}

// LoadDir seeds the store with every report saved in dir. Files that are not
// reports are skipped.
func (s *ReportStore) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read reports directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		format, err := report.FormatFromPath(path)
		if err != nil || format == report.FormatTable {
			continue
		}

		r, err := report.Load(path)
		if err != nil {
			slog.Warn("Skipping unreadable report", "path", path, "err", err)
			continue
		}
		if r.ClassID == "" || r.SessionDate == "" {
			slog.Warn("Skipping report without session keys", "path", path)
			continue
		}
		s.Set(&r)
		loaded++
	}
	return loaded, nil
}
