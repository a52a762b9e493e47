package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Level is the severity of a user-facing notification
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Notification is a toast-style message shown to the operator
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Notifier receives notifications emitted by a capture session
type Notifier interface {
	Notify(n Notification)
}

// Navigator sends the operator to another entry point
type Navigator interface {
	RedirectToLogin()
}

// Console prints notifications to a writer and mirrors them to slog
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Notify(n Notification) {
	attrs := []any{"level", string(n.Level)}
	if n.Detail != "" {
		attrs = append(attrs, "detail", n.Detail)
	}
	switch n.Level {
	case Error:
		slog.Error(n.Message, attrs...)
	case Warning:
		slog.Warn(n.Message, attrs...)
	default:
		slog.Debug(n.Message, attrs...)
	}

	if c.out == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	line := fmt.Sprintf("%s %s", marker(n.Level), n.Message)
	if n.Detail != "" {
		line += ": " + n.Detail
	}
	fmt.Fprintln(c.out, line)
}

func marker(l Level) string {
	switch l {
	case Success:
		return "✅"
	case Warning:
		return "⚠️"
	case Error:
		return "❌"
	default:
		return "ℹ️"
	}
}

// LoginPrompt tells the operator how to log in again
type LoginPrompt struct {
	Out     io.Writer
	Command string
}

func (p LoginPrompt) RedirectToLogin() {
	slog.Warn("Redirecting to login", "command", p.Command)
	if p.Out != nil {
		fmt.Fprintf(p.Out, "Please log in again: %s\n", p.Command)
	}
}

// Recorder keeps every notification and redirect. Useful in tests and for
// surfacing the notification history over HTTP.
type Recorder struct {
	mu        sync.Mutex
	items     []Notification
	redirects int
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *Recorder) RedirectToLogin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects++
}

// Notifications returns a copy of the recorded notifications
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Redirects returns how many times RedirectToLogin was called
func (r *Recorder) Redirects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redirects
}

// Multi fans a notification out to several notifiers
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, notifier := range m {
		notifier.Notify(n)
	}
}
