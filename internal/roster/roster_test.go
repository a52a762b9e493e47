package roster

import (
	"encoding/json"
	"testing"
)

func TestStudentIDUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected StudentID
		wantErr  bool
	}{
		{name: "number", input: `12`, expected: "12"},
		{name: "string", input: `"SV-042"`, expected: "SV-042"},
		{name: "null", input: `null`, expected: ""},
		{name: "object", input: `{"id":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id StudentID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if id != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, id)
			}
		})
	}
}

func TestDecodeStudents(t *testing.T) {
	body := `[{"id":1,"full_name":"An Nguyen","email":"an@school.test","phone_number":"0901"},
	          {"id":"2","full_name":"Binh Tran","email":"","phone_number":""}]`

	var students []Student
	if err := json.Unmarshal([]byte(body), &students); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("Expected 2 students, got %d", len(students))
	}
	if students[0].ID != "1" || students[0].Phone != "0901" {
		t.Errorf("Unexpected first student: %+v", students[0])
	}
	if students[1].ID != "2" {
		t.Errorf("Expected id 2, got %q", students[1].ID)
	}
}

func TestJoin(t *testing.T) {
	students := []Student{
		{ID: "A", FullName: "Alice"},
		{ID: "B", FullName: "Bob"},
		{ID: "C", FullName: "Chi"},
	}

	tests := []struct {
		name     string
		records  []Record
		expected []Status
	}{
		{
			name:     "no records means everyone absent",
			expected: []Status{Absent, Absent, Absent},
		},
		{
			name:     "present record",
			records:  []Record{{StudentID: "B", Status: "Present"}},
			expected: []Status{Absent, Present, Absent},
		},
		{
			name:     "status is case insensitive",
			records:  []Record{{StudentID: "A", Status: "present"}},
			expected: []Status{Present, Absent, Absent},
		},
		{
			name:     "explicit absent and unknown statuses",
			records:  []Record{{StudentID: "A", Status: "Absent"}, {StudentID: "C", Status: "late"}},
			expected: []Status{Absent, Absent, Absent},
		},
		{
			name:     "first record wins",
			records:  []Record{{StudentID: "C", Status: "Present"}, {StudentID: "C", Status: "Absent"}},
			expected: []Status{Absent, Absent, Present},
		},
		{
			name:     "records for unknown students are ignored",
			records:  []Record{{StudentID: "Z", Status: "Present"}},
			expected: []Status{Absent, Absent, Absent},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := Join(students, tt.records)
			if len(entries) != len(students) {
				t.Fatalf("Expected %d entries, got %d", len(students), len(entries))
			}
			for i, e := range entries {
				if e.StudentID != students[i].ID {
					t.Errorf("Entry %d: expected id %s, got %s", i, students[i].ID, e.StudentID)
				}
				if e.Status != tt.expected[i] {
					t.Errorf("Entry %s: expected %s, got %s", e.StudentID, tt.expected[i], e.Status)
				}
			}
		})
	}
}

func TestPromote(t *testing.T) {
	students := []Student{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	records := []Record{{StudentID: "A", Status: "Absent"}, {StudentID: "B", Status: "Absent"}}

	promoted := Promote(records, []StudentID{"A", "C"})
	entries := Join(students, promoted)

	expected := map[StudentID]Status{"A": Present, "B": Absent, "C": Present}
	for _, e := range entries {
		if e.Status != expected[e.StudentID] {
			t.Errorf("Student %s: expected %s, got %s", e.StudentID, expected[e.StudentID], e.Status)
		}
	}

	if records[0].Status != "Absent" {
		t.Errorf("Promote must not modify its input, got %s", records[0].Status)
	}

	again := Promote(promoted, []StudentID{"A", "C"})
	if len(again) != len(promoted) {
		t.Fatalf("Expected idempotent promote, got %d records instead of %d", len(again), len(promoted))
	}
	for i := range again {
		if again[i] != promoted[i] {
			t.Errorf("Record %d changed on second promote: %+v vs %+v", i, again[i], promoted[i])
		}
	}
}

func TestCount(t *testing.T) {
	entries := []Entry{{Status: Present}, {Status: Absent}, {Status: Present}}
	if got := Count(entries, Present); got != 2 {
		t.Errorf("Expected 2 present, got %d", got)
	}
	if got := Count(entries, Absent); got != 1 {
		t.Errorf("Expected 1 absent, got %d", got)
	}
}
