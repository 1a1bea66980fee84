package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errs "likevault/pkg/errors"
	"likevault/pkg/logger"
	"likevault/pkg/retry"
)

func testPolicy(maxAttempts int) *retry.Policy {
	policy := retry.NewDownloadPolicy(maxAttempts, time.Second, time.Second, time.Second, logger.Nop())
	policy.Sleep = func(ctx context.Context, delay time.Duration) error { return nil }
	return policy
}

func TestDownload(t *testing.T) {
	payload := []byte("\x89PNG fake image bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "png" || r.URL.Query().Get("name") != "large" {
			t.Errorf("Expected rewritten rendition query, got %q", r.URL.RawQuery)
		}
		w.Write(payload)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, testPolicy(3), true, logger.Nop())

	data, ok, err := fetcher.Download(context.Background(), server.URL+"/media/abc.jpg")
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if !ok {
		t.Fatal("Expected ok for available content")
	}
	if string(data) != string(payload) {
		t.Errorf("Downloaded bytes do not match served bytes")
	}
}

func TestDownloadWithoutRewrite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("Expected untouched URL, got query %q", r.URL.RawQuery)
		}
		w.Write([]byte("bytes"))
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, testPolicy(3), false, logger.Nop())

	_, ok, err := fetcher.Download(context.Background(), server.URL+"/media/abc.jpg")
	if err != nil || !ok {
		t.Fatalf("Expected success, got ok=%v err=%v", ok, err)
	}
}

func TestDownloadContentGone(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, testPolicy(3), true, logger.Nop())

	data, ok, err := fetcher.Download(context.Background(), server.URL+"/media/gone.jpg")
	if err != nil {
		t.Fatalf("Gone content is not an error, got %v", err)
	}
	if ok {
		t.Error("Expected ok=false for gone content")
	}
	if data != nil {
		t.Error("Expected no data for gone content")
	}
	if requests != 1 {
		t.Errorf("Gone content should not be retried, got %d requests", requests)
	}
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("bytes"))
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, testPolicy(5), true, logger.Nop())

	_, ok, err := fetcher.Download(context.Background(), server.URL+"/media/flaky.jpg")
	if err != nil || !ok {
		t.Fatalf("Expected success after retries, got ok=%v err=%v", ok, err)
	}
	if requests != 3 {
		t.Errorf("Expected 3 requests, got %d", requests)
	}
}

func TestDownloadExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, testPolicy(3), true, logger.Nop())

	_, ok, err := fetcher.Download(context.Background(), server.URL+"/media/down.jpg")
	if err == nil {
		t.Fatal("Expected an error after exhaustion")
	}
	if ok {
		t.Error("Expected ok=false on failure")
	}
	if !errs.IsRetryExhausted(err) {
		t.Errorf("Expected RetryExhaustedError, got %v", err)
	}
}

func TestRewriteLargePNG(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "jpg extension",
			input:    "https://pbs.example.com/media/abc.jpg",
			expected: "https://pbs.example.com/media/abc?format=png&name=large",
		},
		{
			name:     "png extension",
			input:    "https://pbs.example.com/media/abc.png",
			expected: "https://pbs.example.com/media/abc?format=png&name=large",
		},
		{
			name:     "no extension",
			input:    "https://pbs.example.com/media/abc",
			expected: "https://pbs.example.com/media/abc?format=png&name=large",
		},
		{
			name:     "dot in host only",
			input:    "https://pbs.example.com/media/noext",
			expected: "https://pbs.example.com/media/noext?format=png&name=large",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := RewriteLargePNG(test.input); got != test.expected {
				t.Errorf("Expected %q, got %q", test.expected, got)
			}
		})
	}
}
