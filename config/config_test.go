package config

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrianliechti/docscan/pkg/otel"
	"github.com/adrianliechti/docscan/pkg/recognizer"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestParseDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", "api_key: secret\n")

	c, err := Parse(path)
	require.NoError(t, err)

	require.Equal(t, "secret", c.APIKey)
	require.Equal(t, DefaultEndpoint, c.Endpoint)
	require.Equal(t, DefaultModel, c.Model)
	require.Equal(t, DefaultConcurrency, c.Concurrency)
	require.Equal(t, DefaultAttempts, c.Attempts)
	require.Equal(t, DefaultTimeout, c.Timeout)
	require.Equal(t, DefaultDPI, c.DPI)
	require.Equal(t, 0, c.RateLimit)
	require.True(t, c.RetryFailed)
	require.False(t, c.Strict)
}

func TestParseJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "api_key": "secret",
  "api_endpoint": "https://example.com/ocr",
  "model_name": "glm-ocr-pro",
  "max_concurrency": 4
}`)

	c, err := Parse(path)
	require.NoError(t, err)

	require.Equal(t, "https://example.com/ocr", c.Endpoint)
	require.Equal(t, "glm-ocr-pro", c.Model)
	require.Equal(t, 4, c.Concurrency)
}

func TestParseYAML(t *testing.T) {
	t.Setenv("DOCSCAN_TEST_KEY", "from-env")

	path := writeConfig(t, "config.yaml", `
api_key: ${DOCSCAN_TEST_KEY}
max_attempts: 5
rate_limit: 2
timeout: 30s
dpi: 200
strict: true
retry_failed: false
pdftoppm: /opt/poppler/bin/pdftoppm

proxy:
  url: http://proxy.local:3128
`)

	c, err := Parse(path)
	require.NoError(t, err)

	require.Equal(t, "from-env", c.APIKey)
	require.Equal(t, 5, c.Attempts)
	require.Equal(t, 2, c.RateLimit)
	require.Equal(t, 30*time.Second, c.Timeout)
	require.Equal(t, 200, c.DPI)
	require.True(t, c.Strict)
	require.False(t, c.RetryFailed)
	require.Equal(t, "/opt/poppler/bin/pdftoppm", c.PDFToPPM)
	require.Equal(t, "http://proxy.local:3128", c.proxy.URL)
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"missing key", "model_name: glm-ocr\n"},
		{"unknown field", "api_key: secret\nworkers: 3\n"},
		{"zero concurrency", "api_key: secret\nmax_concurrency: 0\n"},
		{"zero attempts", "api_key: secret\nmax_attempts: 0\n"},
		{"negative rate", "api_key: secret\nrate_limit: -1\n"},
		{"bad timeout", "api_key: secret\ntimeout: soon\n"},
		{"dpi too high", "api_key: secret\ndpi: 2400\n"},
		{"malformed", "api_key: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(writeConfig(t, "config.yaml", tc.content))
			require.Error(t, err)
		})
	}
}

func TestParseMissingKey(t *testing.T) {
	t.Setenv("DOCSCAN_TEST_KEY", "")

	_, err := Parse(writeConfig(t, "config.yaml", "api_key: ${DOCSCAN_TEST_KEY}\n"))
	require.ErrorIs(t, err, ErrMissingKey)
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRecognizer(t *testing.T) {
	var authorization string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")

		json.NewEncoder(w).Encode(map[string]any{
			"model":      "glm-ocr",
			"md_results": "# Hello",
		})
	}))
	defer server.Close()

	path := writeConfig(t, "config.yaml", "api_key: secret\napi_endpoint: "+server.URL+"\nrate_limit: 5\n")

	c, err := Parse(path)
	require.NoError(t, err)

	p, err := c.Recognizer()
	require.NoError(t, err)

	_, ok := p.(otel.Recognizer)
	require.True(t, ok)

	result, err := p.Recognize(context.Background(), recognizer.File{
		Name:        "page-1.png",
		Content:     []byte("png"),
		ContentType: "image/png",
	}, nil)

	require.NoError(t, err)
	require.Equal(t, "# Hello", result.Text)
	require.Equal(t, "Bearer secret", authorization)
}

func TestRecognizerInvalidProxy(t *testing.T) {
	c, err := Parse(writeConfig(t, "config.yaml", "api_key: secret\nproxy:\n  url: \"http://[::1\"\n"))
	require.NoError(t, err)

	_, err = c.Recognizer()
	require.Error(t, err)
}

func TestPipelineOptions(t *testing.T) {
	c, err := Parse(writeConfig(t, "config.yaml", "api_key: secret\n"))
	require.NoError(t, err)

	require.Len(t, c.PipelineOptions(t.TempDir(), nil), 5)
}
