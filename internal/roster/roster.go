package roster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the attendance state of a student in one session
type Status string

const (
	Present Status = "Present"
	Absent  Status = "Absent"
)

// ParseStatus maps an API status value onto Present or Absent
func ParseStatus(s string) Status {
	if strings.EqualFold(strings.TrimSpace(s), string(Present)) {
		return Present
	}
	return Absent
}

// StudentID identifies a student. The API sends it either as a JSON number or a string.
type StudentID string

func (id *StudentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StudentID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("student id must be a string or number: %w", err)
	}
	*id = StudentID(n.String())
	return nil
}

// Student is one row of a class roster
type Student struct {
	ID       StudentID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone_number"`
}

// Record is one row of a session's attendance list
type Record struct {
	StudentID StudentID `json:"student_id"`
	Status    string    `json:"status"`
}

// Entry is a roster student joined with their attendance status
type Entry struct {
	StudentID StudentID `json:"student_id" yaml:"student_id"`
	FullName  string    `json:"full_name" yaml:"full_name"`
	Email     string    `json:"email" yaml:"email"`
	Phone     string    `json:"phone_number" yaml:"phone_number"`
	Status    Status    `json:"status" yaml:"status"`
}

// Join pairs every student with its attendance status. Students without a
// record are Absent. When a student has several records the first one wins.
func Join(students []Student, records []Record) []Entry {
	statuses := make(map[StudentID]Status, len(records))
	for _, r := range records {
		if _, seen := statuses[r.StudentID]; seen {
			continue
		}
		statuses[r.StudentID] = ParseStatus(r.Status)
	}

	entries := make([]Entry, 0, len(students))
	for _, s := range students {
		status, ok := statuses[s.ID]
		if !ok {
			status = Absent
		}
		entries = append(entries, Entry{
			StudentID: s.ID,
			FullName:  s.FullName,
			Email:     s.Email,
			Phone:     s.Phone,
			Status:    status,
		})
	}
	return entries
}

// Promote returns a copy of records where every id in present is marked
// Present. Ids without a record get one appended, in the order given.
// Applying it twice with the same ids yields the same result.
func Promote(records []Record, present []StudentID) []Record {
	out := make([]Record, len(records), len(records)+len(present))
	copy(out, records)

	want := make(map[StudentID]bool, len(present))
	for _, id := range present {
		want[id] = true
	}

	seen := make(map[StudentID]bool, len(out))
	for i := range out {
		if want[out[i].StudentID] {
			out[i].Status = string(Present)
		}
		seen[out[i].StudentID] = true
	}
	for _, id := range present {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, Record{StudentID: id, Status: string(Present)})
	}
	return out
}

// Count returns how many entries have the given status
func Count(entries []Entry, status Status) int {
	n := 0
	for _, e := range entries {
		if e.Status == status {
			n++
		}
	}
	return n
}
