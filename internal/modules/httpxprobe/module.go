// Package httpxprobe implements HTTP/HTTPS liveness probing of a target with
// the standard net/http client. A diferencia del resto de módulos active no
// necesita binario externo: la sonda es una petición GET con redirects
// limitados.
package httpxprobe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/modules/common"
	"recondragon/internal/platform/errors"
	"recondragon/internal/platform/logx"
)

const (
	moduleName    = "httpx_probe"
	moduleVersion = "1.0.0"

	defaultUserAgent = "recondragon/1.0"
	maxBodySample    = 64 * 1024
)

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// Module sondea el target por HTTPS y HTTP y reporta el primer esquema vivo.
type Module struct {
	logger    logx.Logger
	client    *http.Client
	userAgent string
	schemes   []string
}

// probeOutcome es el detalle de una sonda individual, persistido como artifact.
type probeOutcome struct {
	URL           string `json:"url"`
	StatusCode    int    `json:"status_code,omitempty"`
	Server        string `json:"server,omitempty"`
	ContentLength int64  `json:"content_length,omitempty"`
	Title         string `json:"title,omitempty"`
	Location      string `json:"location,omitempty"`
	Error         string `json:"error,omitempty"`
}

// New crea el módulo con su configuración efectiva.
func New(logger logx.Logger, requestTimeout time.Duration, insecure bool) *Module {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	transport := http.DefaultTransport
	if insecure {
		if t, ok := http.DefaultTransport.(*http.Transport); ok {
			cloned := t.Clone()
			if cloned.TLSClientConfig != nil {
				cloned.TLSClientConfig.InsecureSkipVerify = true
			}
			transport = cloned
		}
	}

	return &Module{
		logger: logger.With("module", moduleName),
		client: &http.Client{
			Timeout:   requestTimeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: defaultUserAgent,
		schemes:   []string{"https", "http"},
	}
}

// Name retorna el nombre del módulo.
func (m *Module) Name() string { return moduleName }

// Version retorna la versión del módulo.
func (m *Module) Version() string { return moduleVersion }

// Close libera las conexiones keep-alive del client.
func (m *Module) Close() error {
	m.client.CloseIdleConnections()
	return nil
}

// Invoke sondea el target (o proyecta la sonda en dry-run).
func (m *Module) Invoke(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	urls := make([]string, 0, len(m.schemes))
	for _, scheme := range m.schemes {
		urls = append(urls, scheme+"://"+inv.Target+"/")
	}

	if !inv.Execute {
		argv := append([]string{"GET"}, urls...)
		return domain.NewPlannedResult(moduleName, moduleVersion, inv.Target, argv, "http liveness probe of "+inv.Target), nil
	}

	res := domain.NewResult(moduleName, moduleVersion, inv.Target)

	if err := common.EnsureOutputDir(inv.OutputDir); err != nil {
		res.SetError(err.Error())
		return res.Finish(false), err
	}

	outcomes := make([]probeOutcome, 0, len(urls))
	var first *probeOutcome
	for _, url := range urls {
		outcome := m.probe(ctx, url)
		outcomes = append(outcomes, outcome)
		if outcome.Error == "" && first == nil {
			first = &outcomes[len(outcomes)-1]
		}
		if ctx.Err() != nil {
			break
		}
	}

	if ctx.Err() == context.DeadlineExceeded {
		wrapped := errors.Wrap(errors.ErrTimeout, "probe exceeded its deadline")
		res.SetError(wrapped.Error())
		return res.Finish(false), wrapped
	}

	if first != nil {
		res.Summary["alive"] = 1
		res.Summary["url"] = first.URL
		res.Summary["status_code"] = first.StatusCode
		if first.Server != "" {
			res.Summary["server"] = first.Server
		}
		if first.Title != "" {
			res.Summary["title"] = first.Title
		}
	} else {
		res.Summary["alive"] = 0
	}

	artifact := filepath.Join(inv.OutputDir, "probe.json")
	if data, err := json.MarshalIndent(outcomes, "", "  "); err == nil {
		if err := os.WriteFile(artifact, data, 0o644); err != nil {
			m.logger.Warn("failed to persist probe detail", "error", err.Error())
		} else {
			res.AddArtifact(artifact)
		}
	}

	// Un target sin HTTP vivo sigue siendo una sonda exitosa: el hecho
	// reportado es la ausencia de servicio
	return res.Finish(true), nil
}

// probe realiza una sonda GET individual.
func (m *Module) probe(ctx context.Context, url string) probeOutcome {
	outcome := probeOutcome{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	defer resp.Body.Close()

	outcome.StatusCode = resp.StatusCode
	outcome.Server = resp.Header.Get("Server")
	outcome.ContentLength = resp.ContentLength
	outcome.Location = resp.Header.Get("Location")

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySample))
	outcome.Title = extractTitle(body)

	return outcome
}

// extractTitle extrae el <title> de una muestra de HTML.
func extractTitle(body []byte) string {
	match := titleRe.FindSubmatch(body)
	if match == nil {
		return ""
	}
	title := strings.TrimSpace(string(match[1]))
	title = strings.Join(strings.Fields(title), " ")
	if len(title) > 200 {
		title = title[:200]
	}
	return title
}
