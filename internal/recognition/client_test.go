package recognition

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroomhq/faceattend/internal/credentials"
)

func TestSubmitFrame(t *testing.T) {
	var got submitRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/face-attendance/recognize", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"student_id": 7, "full_name": "Chi Le"}`))
	}))
	defer server.Close()

	client := New(server.URL+"/", credentials.NewMemoryStore("tok"))
	result, err := client.SubmitFrame(context.Background(), []byte("jpeg-bytes"), "12", "2024-05-01")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")), got.Image)
	assert.Equal(t, "12", got.ClassID)
	assert.Equal(t, "2024-05-01", got.SessionDate)
	assert.EqualValues(t, "7", result.StudentID)
	assert.Equal(t, "Chi Le", result.FullName)
}

func TestSubmitPublicFrameSkipsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/face-attendance/public/recognize", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"student_id": "S1", "full_name": "An"}`))
	}))
	defer server.Close()

	client := New(server.URL, nil)
	result, err := client.SubmitPublicFrame(context.Background(), []byte("x"), "1", "2024-05-01")
	require.NoError(t, err)
	assert.EqualValues(t, "S1", result.StudentID)
}

func TestSubmitFrameErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   Kind
		detail string
	}{
		{name: "unauthorized", status: 401, body: `{"detail":"Token expired"}`, kind: Unauthenticated, detail: "Token expired"},
		{name: "forbidden", status: 403, body: `{"detail":"Not your class"}`, kind: Forbidden, detail: "Not your class"},
		{
			name:   "validation",
			status: 422,
			body:   `{"detail":[{"loc":["body","image"],"msg":"field required","type":"value_error.missing"}]}`,
			kind:   InvalidInput,
			detail: "image: field required",
		},
		{name: "not found is no match", status: 404, body: `{"detail":"No matching face"}`, kind: NoMatch, detail: "No matching face"},
		{name: "server error", status: 500, body: `oops`, kind: Transient, detail: "oops"},
		{name: "empty student id", status: 200, body: `{"student_id": null}`, kind: NoMatch, detail: "no student matched"},
		{name: "bad json", status: 200, body: `not json`, kind: Transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := New(server.URL, credentials.NewMemoryStore("tok"))
			_, err := client.SubmitFrame(context.Background(), []byte("x"), "1", "2024-05-01")
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.detail, DetailOf(err))
		})
	}
}

func TestMissingTokenSkipsRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := New(server.URL, credentials.NewMemoryStore(""))
	_, err := client.SubmitFrame(context.Background(), []byte("x"), "1", "2024-05-01")
	require.Error(t, err)
	assert.Equal(t, Unauthenticated, KindOf(err))
	assert.True(t, errors.Is(err, credentials.ErrNoToken))
	assert.False(t, called, "request must not be sent without a token")
}

func TestNetworkErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(url, credentials.NewMemoryStore("tok"))
	_, err := client.ListClassStudents(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, Transient, KindOf(err))
}

func TestListClassStudents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/classes/12/students", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": 1, "full_name": "An", "email": "an@x.test", "phone_number": "1"},
			{"id": 2, "full_name": "Binh", "email": "binh@x.test", "phone_number": "2"}
		]`))
	}))
	defer server.Close()

	client := New(server.URL, credentials.NewMemoryStore("tok"))
	students, err := client.ListClassStudents(context.Background(), "12")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.EqualValues(t, "1", students[0].ID)
	assert.Equal(t, "Binh", students[1].FullName)
	assert.Equal(t, "binh@x.test", students[1].Email)
}

func TestListSessionAttendance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/classes/12/sessions/2024-05-01/attendance", r.URL.Path)
		_, _ = w.Write([]byte(`[{"student_id": 1, "status": "Present"}]`))
	}))
	defer server.Close()

	client := New(server.URL, credentials.NewMemoryStore("tok"))
	records, err := client.ListSessionAttendance(context.Background(), "12", "2024-05-01")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.EqualValues(t, "1", records[0].StudentID)
	assert.Equal(t, "Present", records[0].Status)
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "string detail", body: `{"detail":"bad image"}`, expected: "bad image"},
		{name: "message", body: `{"message":"denied"}`, expected: "denied"},
		{name: "plain text", body: "  gateway timeout \n", expected: "gateway timeout"},
		{name: "object detail", body: `{"detail":{"code":1}}`, expected: `{"code":1}`},
		{name: "list without loc", body: `{"detail":[{"msg":"a"},{"msg":"b"}]}`, expected: "a; b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseDetail([]byte(tt.body)); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
