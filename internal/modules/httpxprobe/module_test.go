package httpxprobe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/platform/logx"
	"recondragon/internal/testutil"
)

func TestModule_DryRunProjection(t *testing.T) {
	m := New(logx.NewSilent(), 0, false)

	res, err := m.Invoke(context.Background(), domain.Invocation{
		Target:  "example.com",
		Execute: false,
	})

	testutil.AssertNoError(t, err, "dry-run never fails")
	testutil.AssertTrue(t, res.Success, "projection is successful")
	testutil.AssertEqual(t, len(res.Artifacts), 0, "no artifacts in dry-run")

	planned := res.Summary["planned_command"].(string)
	testutil.AssertContains(t, planned, "GET https://example.com/", "https probe projected first")
	testutil.AssertContains(t, planned, "http://example.com/", "http fallback projected")
}

func TestModule_ProbesLiveServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "test-nginx")
		w.Write([]byte("<html><head><title>  Admin \n Panel </title></head></html>"))
	}))
	defer srv.Close()

	m := New(logx.NewSilent(), 5*time.Second, false)
	// httptest sirve solo HTTP: probar únicamente ese esquema
	m.schemes = []string{"http"}

	target := strings.TrimPrefix(srv.URL, "http://")
	outDir := t.TempDir()

	res, err := m.Invoke(context.Background(), domain.Invocation{
		Target:    target,
		OutputDir: outDir,
		Execute:   true,
	})

	testutil.AssertNoError(t, err, "probe succeeds")
	testutil.AssertTrue(t, res.Success, "result success")
	testutil.AssertEqual(t, res.Summary["alive"], 1, "target alive")
	testutil.AssertEqual(t, res.Summary["status_code"], 200, "status code")
	testutil.AssertEqual(t, res.Summary["server"], "test-nginx", "server header")
	testutil.AssertEqual(t, res.Summary["title"], "Admin Panel", "title normalized")

	testutil.AssertEqual(t, len(res.Artifacts), 1, "probe detail persisted")
	data, readErr := os.ReadFile(filepath.Join(outDir, "probe.json"))
	testutil.AssertNoError(t, readErr, "artifact readable")
	testutil.AssertContains(t, string(data), `"status_code": 200`, "detail carries status")
}

func TestModule_DeadTargetStillSucceeds(t *testing.T) {
	m := New(logx.NewSilent(), 500*time.Millisecond, false)
	m.schemes = []string{"http"}

	res, err := m.Invoke(context.Background(), domain.Invocation{
		Target:    "127.0.0.1:1", // puerto reservado, nadie escucha
		OutputDir: t.TempDir(),
		Execute:   true,
	})

	testutil.AssertNoError(t, err, "absence of service is a fact, not a failure")
	testutil.AssertTrue(t, res.Success, "result success")
	testutil.AssertEqual(t, res.Summary["alive"], 0, "target not alive")
}

func TestExtractTitle(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"plain", "<title>Hello</title>", "Hello"},
		{"attributes", `<TITLE class="x">Mixed Case</TITLE>`, "Mixed Case"},
		{"multiline", "<title>\n  spread\n  out\n</title>", "spread out"},
		{"absent", "<h1>no title</h1>", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			testutil.AssertEqual(t, extractTitle([]byte(tc.body)), tc.want, "extracted title")
		})
	}
}

func TestModule_Identity(t *testing.T) {
	m := New(logx.NewSilent(), 0, false)
	testutil.AssertEqual(t, m.Name(), "httpx_probe", "name")
	testutil.AssertEqual(t, m.Version(), moduleVersion, "version")
	testutil.AssertNoError(t, m.Close(), "close is a no-op")
}
