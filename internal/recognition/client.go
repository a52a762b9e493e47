package recognition

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/classroomhq/faceattend/internal/credentials"
	"github.com/classroomhq/faceattend/internal/roster"
)

// Result is a positive recognition
type Result struct {
	StudentID roster.StudentID `json:"student_id"`
	FullName  string           `json:"full_name"`
}

type submitRequest struct {
	Image       string `json:"image"`
	ClassID     string `json:"classId"`
	SessionDate string `json:"sessionDate"`
}

// Client talks to the school management API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     credentials.Store
}

// New creates a client for the API at baseURL
func New(baseURL string, tokens credentials.Store) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		Tokens: tokens,
	}
}

// SubmitFrame sends one captured frame for recognition on behalf of the
// logged-in teacher.
func (c *Client) SubmitFrame(ctx context.Context, frame []byte, classID, sessionDate string) (Result, error) {
	return c.submit(ctx, "/face-attendance/recognize", true, frame, classID, sessionDate)
}

// SubmitPublicFrame sends a frame through the unauthenticated entry point
// that backs the shareable link.
func (c *Client) SubmitPublicFrame(ctx context.Context, frame []byte, classID, sessionDate string) (Result, error) {
	return c.submit(ctx, "/face-attendance/public/recognize", false, frame, classID, sessionDate)
}

func (c *Client) submit(ctx context.Context, path string, authed bool, frame []byte, classID, sessionDate string) (Result, error) {
	requestBody, err := json.Marshal(submitRequest{
		Image:       base64.StdEncoding.EncodeToString(frame),
		ClassID:     classID,
		SessionDate: sessionDate,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	var result Result
	if err := c.do(ctx, http.MethodPost, path, authed, requestBody, &result); err != nil {
		return Result{}, err
	}
	if result.StudentID == "" {
		return Result{}, &Error{Kind: NoMatch, Status: http.StatusOK, Detail: "no student matched"}
	}
	return result, nil
}

// ListClassStudents returns the roster of a class in API order
func (c *Client) ListClassStudents(ctx context.Context, classID string) ([]roster.Student, error) {
	var students []roster.Student
	path := "/classes/" + url.PathEscape(classID) + "/students"
	if err := c.do(ctx, http.MethodGet, path, true, nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// ListSessionAttendance returns the attendance records stored for a session
func (c *Client) ListSessionAttendance(ctx context.Context, classID, sessionDate string) ([]roster.Record, error) {
	var records []roster.Record
	path := "/classes/" + url.PathEscape(classID) + "/sessions/" + url.PathEscape(sessionDate) + "/attendance"
	if err := c.do(ctx, http.MethodGet, path, true, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, method, path string, authed bool, body []byte, out any) error {
	var token string
	if authed {
		if c.Tokens == nil {
			return &Error{Kind: Unauthenticated, Err: credentials.ErrNoToken}
		}
		t, err := c.Tokens.Token()
		if err != nil {
			return &Error{Kind: Unauthenticated, Err: err}
		}
		token = t
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return &Error{Kind: Transient, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return statusError(resp.StatusCode, respBody)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: Transient, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response body: %w", err)}
	}
	return nil
}
