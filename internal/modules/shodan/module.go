// Package shodan enriches a target with Shodan's host intelligence API.
// Las respuestas se cachean 24h: el free tier de Shodan es de 1 req/s y cada
// lookup consume query credits.
package shodan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/modules/common"
	"recondragon/internal/platform/cache"
	"recondragon/internal/platform/errors"
	"recondragon/internal/platform/logx"
	"recondragon/internal/platform/validator"
)

const (
	moduleName    = "shodan_enrich"
	moduleVersion = "1.0.0"

	defaultBaseURL  = "https://api.shodan.io"
	defaultCacheTTL = 24 * time.Hour

	endpointHostInfo = "/shodan/host/%s"
)

// hostResponse es el subconjunto de /shodan/host/{ip} que resumimos. El body
// completo se conserva como artifact.
type hostResponse struct {
	IPStr      string   `json:"ip_str"`
	Ports      []int    `json:"ports"`
	Hostnames  []string `json:"hostnames"`
	Org        string   `json:"org"`
	ISP        string   `json:"isp"`
	ASN        string   `json:"asn"`
	OS         string   `json:"os"`
	Vulns      []string `json:"vulns"`
	Tags       []string `json:"tags"`
	LastUpdate string   `json:"last_update"`
}

// Module consulta la API de Shodan para el target. Read-only: toda la
// información proviene de los escaneos propios de Shodan, nunca del target.
type Module struct {
	logger  logx.Logger
	client  *http.Client
	apiKey  string
	baseURL string
	cache   cache.Cache
	ttl     time.Duration

	// resolve traduce dominios a IP; inyectable en tests
	resolve func(ctx context.Context, host string) ([]net.IP, error)
}

// New crea el módulo con su configuración efectiva. Con apiKey vacía el
// módulo registra igualmente pero cada Invoke real falla con config inválida.
func New(logger logx.Logger, apiKey string, store cache.Cache, ttl time.Duration) *Module {
	if store == nil {
		store = cache.NewMemoryCache(100)
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	resolver := &net.Resolver{}
	return &Module{
		logger:  logger.With("module", moduleName),
		client:  &http.Client{Timeout: 30 * time.Second},
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		cache:   store,
		ttl:     ttl,
		resolve: func(ctx context.Context, host string) ([]net.IP, error) {
			addrs, err := resolver.LookupIP(ctx, "ip4", host)
			if err != nil {
				return nil, err
			}
			return addrs, nil
		},
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

// Invoke enriquece el target (o proyecta el lookup en dry-run).
func (m *Module) Invoke(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	// La key nunca entra en la proyección
	endpoint := m.baseURL + fmt.Sprintf(endpointHostInfo, inv.Target)

	if !inv.Execute {
		return domain.NewPlannedResult(moduleName, moduleVersion, inv.Target,
			[]string{"GET", endpoint}, "shodan host intelligence lookup for "+inv.Target), nil
	}

	res := domain.NewResult(moduleName, moduleVersion, inv.Target)

	if m.apiKey == "" {
		err := errors.Wrap(errors.ErrInvalidConfig, "shodan api key is not configured")
		res.SetError(err.Error())
		return res.Finish(false), err
	}

	if err := common.EnsureOutputDir(inv.OutputDir); err != nil {
		res.SetError(err.Error())
		return res.Finish(false), err
	}

	ip, err := m.targetIP(ctx, inv.Target)
	if err != nil {
		res.SetError(err.Error())
		return res.Finish(false), err
	}

	body, cached, err := m.lookup(ctx, ip)
	if err != nil {
		res.SetError(err.Error())
		return res.Finish(false), err
	}

	// Shodan sin datos para la IP sigue siendo un lookup exitoso
	if body == nil {
		res.Summary["ip"] = ip
		res.Summary["ports"] = 0
		res.Summary["found"] = false
		return res.Finish(true), nil
	}

	var host hostResponse
	if err := json.Unmarshal(body, &host); err != nil {
		wrapped := errors.Wrapf(errors.ErrMalformedResult, "shodan response for %s is not valid JSON", ip)
		res.SetError(wrapped.Error())
		return res.Finish(false), wrapped
	}

	res.Summary["ip"] = ip
	res.Summary["found"] = true
	res.Summary["cached"] = cached
	res.Summary["ports"] = len(host.Ports)
	res.Summary["vuln_count"] = len(host.Vulns)
	if host.Org != "" {
		res.Summary["org"] = host.Org
	}
	if host.OS != "" {
		res.Summary["os"] = host.OS
	}
	if len(host.Hostnames) > 0 {
		res.Summary["hostname_count"] = len(host.Hostnames)
	}

	artifact := filepath.Join(inv.OutputDir, "shodan.json")
	if err := os.WriteFile(artifact, body, 0o644); err != nil {
		m.logger.Warn("failed to persist shodan response", "error", err.Error())
	} else {
		res.AddArtifact(artifact)
		res.Raw = artifact
	}

	return res.Finish(true), nil
}

// targetIP resuelve el target a una IPv4. Los targets que ya son IP pasan tal
// cual.
func (m *Module) targetIP(ctx context.Context, target string) (string, error) {
	if validator.IsIP(target) {
		return target, nil
	}
	addrs, err := m.resolve(ctx, target)
	if err != nil || len(addrs) == 0 {
		return "", errors.Wrapf(errors.ErrToolIO, "cannot resolve %s to an address", target)
	}
	return addrs[0].String(), nil
}

// lookup consulta la API con cache de por medio. Un body nil con error nil
// significa que Shodan no tiene datos para la IP.
func (m *Module) lookup(ctx context.Context, ip string) ([]byte, bool, error) {
	cacheKey := "shodan:host:" + ip
	if v, ok := m.cache.Get(cacheKey); ok {
		m.logger.Debug("shodan cache hit", "ip", ip)
		return v.([]byte), true, nil
	}

	endpoint := m.baseURL + fmt.Sprintf(endpointHostInfo, ip)
	apiURL := endpoint + "?key=" + url.QueryEscape(m.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrToolIO, err.Error())
	}

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, false, errors.Wrap(errors.ErrTimeout, "shodan lookup exceeded its deadline")
		}
		return nil, false, errors.Wrapf(errors.ErrToolIO, "shodan request failed: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, false, errors.Wrap(errors.ErrNotAuthorized, "shodan rejected the api key")
	case http.StatusNotFound:
		return nil, false, nil
	default:
		// 429 y 5xx incluidos: transitorios, el retry se encarga
		return nil, false, errors.Wrapf(errors.ErrToolIO, "shodan returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, false, errors.Wrapf(errors.ErrToolIO, "reading shodan response: %v", err)
	}

	m.cache.Set(cacheKey, body, m.ttl)
	return body, false, nil
}
