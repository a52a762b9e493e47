package link

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// PublicPath is the unauthenticated capture entry point
const PublicPath = "/face-attendance/public"

var ErrMissingParams = errors.New("classId and sessionDate are required")

// Shareable builds the public capture link for a session. It depends only on
// its arguments.
func Shareable(origin, classID, sessionDate string) string {
	q := url.Values{}
	q.Set("classId", classID)
	q.Set("sessionDate", sessionDate)
	return strings.TrimRight(origin, "/") + PublicPath + "?" + q.Encode()
}

// Parse extracts the session keys from a shareable link or from the query
// string of a request to the public entry point.
func Parse(raw string) (classID, sessionDate string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid link: %w", err)
	}
	if u.Path != "" && !strings.HasSuffix(u.Path, PublicPath) {
		return "", "", fmt.Errorf("link does not point to %s: %s", PublicPath, u.Path)
	}
	return FromQuery(u.Query())
}

// FromQuery reads classId and sessionDate from query values
func FromQuery(q url.Values) (classID, sessionDate string, err error) {
	classID = strings.TrimSpace(q.Get("classId"))
	sessionDate = strings.TrimSpace(q.Get("sessionDate"))
	if classID == "" || sessionDate == "" {
		return "", "", ErrMissingParams
	}
	return classID, sessionDate, nil
}

// QRCode renders the shareable link as a PNG
func QRCode(origin, classID, sessionDate string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(Shareable(origin, classID, sessionDate), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
