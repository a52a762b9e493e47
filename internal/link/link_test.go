package link

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
)

func TestShareable(t *testing.T) {
	tests := []struct {
		name        string
		origin      string
		classID     string
		sessionDate string
		expected    string
	}{
		{
			name:        "basic",
			origin:      "https://school.example.com",
			classID:     "12",
			sessionDate: "2024-05-01",
			expected:    "https://school.example.com/face-attendance/public?classId=12&sessionDate=2024-05-01",
		},
		{
			name:        "trailing slash on origin",
			origin:      "http://localhost:3000/",
			classID:     "12",
			sessionDate: "2024-05-01",
			expected:    "http://localhost:3000/face-attendance/public?classId=12&sessionDate=2024-05-01",
		},
		{
			name:        "escapes keys",
			origin:      "http://localhost",
			classID:     "10A&B",
			sessionDate: "2024-05-01",
			expected:    "http://localhost/face-attendance/public?classId=10A%26B&sessionDate=2024-05-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Shareable(tt.origin, tt.classID, tt.sessionDate)
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
			if again := Shareable(tt.origin, tt.classID, tt.sessionDate); again != got {
				t.Errorf("Shareable is not deterministic: %s vs %s", got, again)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	raw := Shareable("https://school.example.com", "10A&B", "2024-05-01")

	classID, sessionDate, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if classID != "10A&B" || sessionDate != "2024-05-01" {
		t.Errorf("Unexpected keys: %q %q", classID, sessionDate)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing session date", raw: "http://x/face-attendance/public?classId=1"},
		{name: "missing class id", raw: "http://x/face-attendance/public?sessionDate=2024-05-01"},
		{name: "wrong path", raw: "http://x/login?classId=1&sessionDate=2024-05-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Parse(tt.raw); err == nil {
				t.Errorf("Expected error for %s", tt.raw)
			}
		})
	}

	if _, _, err := Parse("http://x/face-attendance/public?classId=1"); !errors.Is(err, ErrMissingParams) {
		t.Errorf("Expected ErrMissingParams, got %v", err)
	}
}

func TestQRCode(t *testing.T) {
	data, err := QRCode("http://localhost", "12", "2024-05-01", 128)
	if err != nil {
		t.Fatalf("QRCode() failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("QR code is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 128 {
		t.Errorf("Expected 128px wide image, got %d", img.Bounds().Dx())
	}
}
