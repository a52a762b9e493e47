package report

import (
	"strings"
	"time"

	"github.com/classroomhq/faceattend/internal/attendance"
	"github.com/classroomhq/faceattend/internal/roster"
)

// Report is the reconciled attendance of one session, ready to be saved
type Report struct {
	RunID       string                  `json:"run_id" yaml:"run_id"`
	ClassID     string                  `json:"class_id" yaml:"class_id"`
	SessionDate string                  `json:"session_date" yaml:"session_date"`
	GeneratedAt time.Time               `json:"generated_at" yaml:"generated_at"`
	Present     int                     `json:"present" yaml:"present"`
	Absent      int                     `json:"absent" yaml:"absent"`
	Recognized  []attendance.Recognized `json:"recognized,omitempty" yaml:"recognized,omitempty"`
	Stats       *attendance.Stats       `json:"stats,omitempty" yaml:"stats,omitempty"`
	Roster      []roster.Entry          `json:"roster" yaml:"roster"`
}

// Row is the flat form of one roster entry used for JSONL and Parquet
type Row struct {
	RunID       string `json:"run_id" parquet:"run_id"`
	ClassID     string `json:"class_id" parquet:"class_id"`
	SessionDate string `json:"session_date" parquet:"session_date"`
	StudentID   string `json:"student_id" parquet:"student_id"`
	FullName    string `json:"full_name" parquet:"full_name"`
	Email       string `json:"email" parquet:"email"`
	Phone       string `json:"phone_number" parquet:"phone_number"`
	Status      string `json:"status" parquet:"status"`
	Recognized  bool   `json:"recognized" parquet:"recognized"`
}

// FromSummary builds a report from a closed capture session
func FromSummary(s attendance.Summary) Report {
	stats := s.Stats
	r := FromRoster(s.Keys, s.Roster)
	r.RunID = s.RunID
	r.GeneratedAt = s.ClosedAt
	r.Recognized = s.Recognized
	r.Stats = &stats
	return r
}

// FromRoster builds a report from a roster that was only fetched
func FromRoster(keys attendance.Keys, entries []roster.Entry) Report {
	return Report{
		ClassID:     keys.ClassID,
		SessionDate: keys.SessionDate,
		GeneratedAt: time.Now(),
		Present:     roster.Count(entries, roster.Present),
		Absent:      roster.Count(entries, roster.Absent),
		Roster:      entries,
	}
}

// Rows flattens the roster
func (r Report) Rows() []Row {
	recognized := make(map[roster.StudentID]bool, len(r.Recognized))
	for _, rec := range r.Recognized {
		recognized[rec.StudentID] = true
	}

	rows := make([]Row, 0, len(r.Roster))
	for _, e := range r.Roster {
		rows = append(rows, Row{
			RunID:       r.RunID,
			ClassID:     r.ClassID,
			SessionDate: r.SessionDate,
			StudentID:   string(e.StudentID),
			FullName:    e.FullName,
			Email:       e.Email,
			Phone:       e.Phone,
			Status:      string(e.Status),
			Recognized:  recognized[e.StudentID],
		})
	}
	return rows
}

// fromRows rebuilds a report from flat rows. The keys and run id are taken
// from the first row.
func fromRows(rows []Row) Report {
	var r Report
	for i, row := range rows {
		if i == 0 {
			r.RunID = row.RunID
			r.ClassID = row.ClassID
			r.SessionDate = row.SessionDate
		}
		entry := roster.Entry{
			StudentID: roster.StudentID(row.StudentID),
			FullName:  row.FullName,
			Email:     row.Email,
			Phone:     row.Phone,
			Status:    roster.ParseStatus(row.Status),
		}
		r.Roster = append(r.Roster, entry)
		if row.Recognized {
			r.Recognized = append(r.Recognized, attendance.Recognized{StudentID: entry.StudentID, FullName: entry.FullName})
		}
	}
	r.Present = roster.Count(r.Roster, roster.Present)
	r.Absent = roster.Count(r.Roster, roster.Absent)
	return r
}

// FileName is the file a report is saved under in a reports directory
func FileName(r Report) string {
	clean := strings.NewReplacer("/", "_", `\`, "_", "..", "_", " ", "_")
	return clean.Replace(r.ClassID) + "_" + clean.Replace(r.SessionDate) + ".yaml"
}
