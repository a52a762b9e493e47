package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroomhq/faceattend/internal/attendance"
	"github.com/classroomhq/faceattend/internal/report"
	"github.com/classroomhq/faceattend/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLinkCommand(t *testing.T) {
	qr := filepath.Join(t.TempDir(), "link.png")
	out, err := execute(t, "link", "--class-id", "12", "--session-date", "2024-05-01", "--origin", "https://school.example/", "--qr", qr)
	require.NoError(t, err)
	assert.Contains(t, out, "https://school.example/face-attendance/public?classId=12&sessionDate=2024-05-01")

	f, err := os.Open(qr)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}

func TestLinkCommandRejectsBadDate(t *testing.T) {
	_, err := execute(t, "link", "--class-id", "12", "--session-date", "01/05/2024")
	assert.Error(t, err)
}

func TestLoginLogout(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")

	_, err := execute(t, "login", "--token-file", tokenFile)
	assert.Error(t, err, "token is required")

	out, err := execute(t, "login", "--token-file", tokenFile, "--token", "opaque-token")
	require.NoError(t, err)
	assert.Contains(t, out, tokenFile)

	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", strings.TrimSpace(string(data)))

	_, err = execute(t, "logout", "--token-file", tokenFile)
	require.NoError(t, err)
	_, err = os.Stat(tokenFile)
	assert.True(t, os.IsNotExist(err))
}

func TestTokenFileFromEnv(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "env-token")
	t.Setenv("FACEATTEND_TOKEN_FILE", tokenFile)

	_, err := execute(t, "login", "--token", "from-env")
	require.NoError(t, err)
	_, err = os.Stat(tokenFile)
	assert.NoError(t, err)
}

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/classes/12/students", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "full_name": "Ana"},
			{"id": 2, "full_name": "Ben"},
		})
	})
	mux.HandleFunc("/classes/12/sessions/2024-05-01/attendance", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"student_id": 2, "status": "present"},
		})
	})
	mux.HandleFunc("/face-attendance/recognize", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"student_id": 1, "full_name": "Ana"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRosterCommand(t *testing.T) {
	api := fakeAPI(t)

	out, err := execute(t, "roster", "--api-url", api.URL, "--class-id", "12", "--session-date", "2024-05-01",
		"--token-file", filepath.Join(t.TempDir(), "token"))
	require.NoError(t, err)
	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "Present: 1")
}

func TestCaptureCommand(t *testing.T) {
	api := fakeAPI(t)
	dir := t.TempDir()

	frames := filepath.Join(dir, "frames")
	require.NoError(t, os.MkdirAll(frames, 0755))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	require.NoError(t, os.WriteFile(filepath.Join(frames, "001.png"), buf.Bytes(), 0644))

	tokenFile := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("opaque-token"), 0600))

	export := filepath.Join(dir, "out", "roster.yaml")
	reports := filepath.Join(dir, "reports")
	out, err := execute(t, "capture",
		"--api-url", api.URL,
		"--token-file", tokenFile,
		"--class-id", "12",
		"--session-date", "2024-05-01",
		"--frames", frames,
		"--loop",
		"--interval", "10ms",
		"--duration", "300ms",
		"--export", export,
		"--reports", reports,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Checked in: Ana")

	rep, err := report.Load(export)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Present)
	assert.Equal(t, 0, rep.Absent)

	// the closed session is what serve --reports picks up
	store := storage.New()
	n, err := store.LoadDir(reports)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	saved, ok := store.Get(attendance.Keys{ClassID: "12", SessionDate: "2024-05-01"})
	require.True(t, ok)
	assert.Equal(t, 2, saved.Present)
	assert.NotEmpty(t, saved.RunID)
}

func TestCaptureRequiresSource(t *testing.T) {
	_, err := execute(t, "capture", "--class-id", "12", "--session-date", "2024-05-01")
	assert.Error(t, err)
}
