package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("should fetch a remote feed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/calendar")
			_, _ = w.Write([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
		}))
		defer srv.Close()

		body, err := NewFetcher(time.Second).Fetch(ctx, srv.URL+"/cal.ics")

		require.NoError(t, err)
		assert.Contains(t, string(body), "BEGIN:VCALENDAR")
	})

	t.Run("should fail on non-200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := NewFetcher(time.Second).Fetch(ctx, srv.URL)

		assert.Error(t, err)
	})

	t.Run("should time out slow feeds", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		start := time.Now()
		_, err := NewFetcher(50*time.Millisecond).Fetch(ctx, srv.URL)

		assert.Error(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("should read a local path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "staff.ics")
		require.NoError(t, os.WriteFile(path, []byte("BEGIN:VCALENDAR"), 0o600))

		body, err := NewFetcher(time.Second).Fetch(ctx, path)

		require.NoError(t, err)
		assert.Equal(t, "BEGIN:VCALENDAR", string(body))
	})

	t.Run("should fail on a missing path", func(t *testing.T) {
		_, err := NewFetcher(time.Second).Fetch(ctx, filepath.Join(t.TempDir(), "nope.ics"))
		assert.Error(t, err)
	})

	t.Run("should reject empty source", func(t *testing.T) {
		_, err := NewFetcher(time.Second).Fetch(ctx, "  ")
		assert.Error(t, err)
	})
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://outlook.office365.com/...(redacted)",
		RedactURL("https://outlook.office365.com/owa/calendar/abc/reachcalendar.ics?token=1"))
	assert.Equal(t, "file/...(redacted)", RedactURL("/srv/calendars/claire.ics"))
}

func TestWebcalToHTTPS(t *testing.T) {
	assert.Equal(t, "https://example.com/a.ics", webcalToHTTPS("webcal://example.com/a.ics"))
	assert.Equal(t, "http://example.com/a.ics", webcalToHTTPS("http://example.com/a.ics"))
}
