package notify

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleNotify(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Notify(Notification{Level: Success, Message: "Checked in: An Nguyen"})
	c.Notify(Notification{Level: Warning, Message: "Invalid submission", Detail: "image is required"})

	out := buf.String()
	if !strings.Contains(out, "✅ Checked in: An Nguyen") {
		t.Errorf("Expected success line, got %q", out)
	}
	if !strings.Contains(out, "Invalid submission: image is required") {
		t.Errorf("Expected detail to be appended, got %q", out)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	if _, ok := r.Last(); ok {
		t.Fatal("Expected empty recorder")
	}

	Multi{&r}.Notify(Notification{Level: Info, Message: "first"})
	r.Notify(Notification{Level: Error, Message: "second"})
	r.RedirectToLogin()

	if got := len(r.Notifications()); got != 2 {
		t.Errorf("Expected 2 notifications, got %d", got)
	}
	last, ok := r.Last()
	if !ok || last.Message != "second" {
		t.Errorf("Unexpected last notification: %+v", last)
	}
	if r.Redirects() != 1 {
		t.Errorf("Expected 1 redirect, got %d", r.Redirects())
	}
}

func TestLoginPrompt(t *testing.T) {
	var buf bytes.Buffer
	LoginPrompt{Out: &buf, Command: "faceattend login --token <token>"}.RedirectToLogin()
	if !strings.Contains(buf.String(), "faceattend login") {
		t.Errorf("Expected login command in output, got %q", buf.String())
	}
}
