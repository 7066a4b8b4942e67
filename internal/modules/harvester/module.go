// Package harvester corre theHarvester contra el dominio objetivo y enriquece
// el resultado con fuentes OSINT públicas: certificate transparency (crt.sh),
// hunter.io y HaveIBeenPwned. Read-only: todo proviene de fuentes públicas,
// nunca de la infraestructura del target.
package harvester

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/modules/common"
	"recondragon/internal/platform/cache"
	"recondragon/internal/platform/logx"
)

const (
	moduleName    = "harvester"
	moduleVersion = "1.0.0"

	defaultLimit    = 100
	defaultCacheTTL = time.Hour

	defaultCrtshURL  = "https://crt.sh"
	defaultHunterURL = "https://api.hunter.io"
	defaultHIBPURL   = "https://haveibeenpwned.com"

	// HIBP rate limits por key: solo los primeros correos descubiertos
	maxBreachChecks = 10
)

// harvesterOutput es el JSON que theHarvester deja en disco con -f json.
type harvesterOutput struct {
	Emails        []string `json:"emails"`
	Hosts         []string `json:"hosts"`
	LinkedinLinks []string `json:"linkedin_links"`
	TwitterLinks  []string `json:"twitter_links"`
}

// hunterData es lo que se conserva en cache de una consulta a hunter.io.
type hunterData struct {
	Emails []string
	Names  []string
}

// Module ejecuta theHarvester y agrega el enriquecimiento por API. Las
// respuestas de las APIs se cachean para no quemar rate limits entre jobs.
type Module struct {
	*common.BaseCLIModule

	client    *http.Client
	cache     cache.Cache
	ttl       time.Duration
	hunterKey string
	hibpKey   string
	limit     int
	sources   []string

	// endpoints de enriquecimiento; sobreescribibles en tests
	crtshURL  string
	hunterURL string
	hibpURL   string
}

// New crea el módulo con su configuración efectiva. Las keys vacías degradan:
// el enriquecimiento que las necesita se omite, nunca falla.
func New(logger logx.Logger, hunterKey, hibpKey string, store cache.Cache, limit int, sources []string) *Module {
	if store == nil {
		store = cache.NewMemoryCache(100)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Module{
		BaseCLIModule: common.NewBaseCLIModule(logger.With("module", moduleName), "theHarvester"),
		client:        &http.Client{Timeout: 30 * time.Second},
		cache:         store,
		ttl:           defaultCacheTTL,
		hunterKey:     hunterKey,
		hibpKey:       hibpKey,
		limit:         limit,
		sources:       sources,
		crtshURL:      defaultCrtshURL,
		hunterURL:     defaultHunterURL,
		hibpURL:       defaultHIBPURL,
	}
}

// Name retorna el nombre del módulo.
func (m *Module) Name() string { return moduleName }

// Version retorna la versión del módulo.
func (m *Module) Version() string { return moduleVersion }

// Close libera el subproceso y las conexiones keep-alive del client.
func (m *Module) Close() error {
	m.client.CloseIdleConnections()
	return m.BaseCLIModule.Close()
}

// Invoke ejecuta el harvesting (o su proyección en dry-run).
func (m *Module) Invoke(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	outputFile := filepath.Join(inv.OutputDir, "harvester_results.json")
	argv := m.argv(inv.Target, outputFile)

	if !inv.Execute {
		// Las API keys nunca entran en la proyección
		return domain.NewPlannedResult(moduleName, moduleVersion, inv.Target, argv,
			"osint harvesting for "+inv.Target+" with crt.sh, hunter.io and breach enrichment"), nil
	}

	res := domain.NewResult(moduleName, moduleVersion, inv.Target)

	if err := common.EnsureOutputDir(inv.OutputDir); err != nil {
		res.SetError(err.Error())
		return res.Finish(false), err
	}

	stderr, err := m.ExecuteCLI(ctx, argv[1:], common.DiscardHandler{})
	if err != nil {
		res.SetError(err.Error())
		if stderr != "" {
			res.Summary["stderr"] = truncate(stderr, 2048)
		}
		return res.Finish(false), err
	}

	harvested := m.parseOutput(outputFile)

	// El enriquecimiento degrada: una fuente caída se loguea y se sigue
	crtDomains := m.enrichCrtSH(ctx, inv.Target)
	hunterEmails, names := m.enrichHunter(ctx, inv.Target)

	emails := dedupe(append(append([]string{}, harvested.Emails...), hunterEmails...))
	hosts := dedupe(append(append([]string{}, harvested.Hosts...), crtDomains...))
	linked := dedupe(harvested.LinkedinLinks)

	breaches := m.enrichBreaches(ctx, emails)
	findings := notableFindings(breaches)

	res.Summary["emails"] = len(emails)
	res.Summary["hosts"] = len(hosts)
	res.Summary["linked_domains"] = len(linked)
	res.Summary["employee_names"] = len(names)
	res.Summary["findings"] = len(findings)

	if _, err := os.Stat(outputFile); err == nil {
		res.AddArtifact(outputFile)
	}

	combined := map[string]any{
		"emails":                  emails,
		"hosts":                   hosts,
		"linked_domains":          linked,
		"possible_employee_names": names,
		"notable_findings":        findings,
		"crtsh_domains":           crtDomains,
		"breaches":                breaches,
	}
	artifact := filepath.Join(inv.OutputDir, "harvester.json")
	if data, err := json.MarshalIndent(combined, "", "  "); err != nil {
		m.Logger().Warn("failed to encode harvester results", "error", err.Error())
	} else if err := os.WriteFile(artifact, data, 0o644); err != nil {
		m.Logger().Warn("failed to persist harvester results", "error", err.Error())
	} else {
		res.AddArtifact(artifact)
		res.Raw = artifact
	}

	return res.Finish(true), nil
}

// argv es la línea de comando completa de theHarvester, también usada por la
// proyección. El timeout lo gobierna el context del intento, no el tool.
func (m *Module) argv(target, outputFile string) []string {
	argv := []string{
		"theHarvester",
		"-d", target,
		"-f", "json",
		"-o", outputFile,
		"-l", strconv.Itoa(m.limit),
	}
	if len(m.sources) > 0 {
		argv = append(argv, "-b", strings.Join(m.sources, ","))
	}
	return argv
}

// parseOutput lee el JSON que theHarvester dejó en disco. Un archivo ausente
// o corrupto degrada a resultados vacíos, igual que el tool ante cero hits.
func (m *Module) parseOutput(path string) harvesterOutput {
	var out harvesterOutput
	data, err := os.ReadFile(path)
	if err != nil {
		m.Logger().Warn("harvester output missing", "path", path, "error", err.Error())
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		m.Logger().Warn("harvester output is not valid JSON", "error", err.Error())
	}
	return out
}

// enrichCrtSH recupera dominios desde los logs de certificate transparency.
// No requiere key.
func (m *Module) enrichCrtSH(ctx context.Context, target string) []string {
	cacheKey := "harvester:crtsh:" + target
	if v, ok := m.cache.Get(cacheKey); ok {
		return v.([]string)
	}

	endpoint := m.crtshURL + "/?q=" + url.QueryEscape(target) + "&output=json"
	body, err := m.get(ctx, endpoint, nil)
	if err != nil {
		m.Logger().Warn("crt.sh enrichment failed", "error", err.Error())
		return nil
	}

	var certs []struct {
		CommonName string `json:"common_name"`
		NameValue  string `json:"name_value"`
	}
	if err := json.Unmarshal(body, &certs); err != nil {
		m.Logger().Warn("crt.sh response is not valid JSON", "error", err.Error())
		return nil
	}

	var domains []string
	for _, cert := range certs {
		if cert.CommonName != "" {
			domains = append(domains, cert.CommonName)
		}
		for _, name := range strings.Split(cert.NameValue, "\n") {
			if name != "" {
				domains = append(domains, name)
			}
		}
	}
	domains = dedupe(domains)

	m.cache.Set(cacheKey, domains, m.ttl)
	return domains
}

// enrichHunter consulta hunter.io por correos y nombres de empleados. Sin key
// configurada se omite.
func (m *Module) enrichHunter(ctx context.Context, target string) ([]string, []string) {
	if m.hunterKey == "" {
		return nil, nil
	}

	cacheKey := "harvester:hunter:" + target
	if v, ok := m.cache.Get(cacheKey); ok {
		cached := v.(hunterData)
		return cached.Emails, cached.Names
	}

	endpoint := m.hunterURL + "/v2/domain-search?domain=" + url.QueryEscape(target) +
		"&api_key=" + url.QueryEscape(m.hunterKey)
	body, err := m.get(ctx, endpoint, nil)
	if err != nil {
		m.Logger().Warn("hunter.io enrichment failed", "error", err.Error())
		return nil, nil
	}

	var resp struct {
		Data struct {
			Emails []struct {
				Value     string `json:"value"`
				FirstName string `json:"first_name"`
				LastName  string `json:"last_name"`
			} `json:"emails"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		m.Logger().Warn("hunter.io response is not valid JSON", "error", err.Error())
		return nil, nil
	}

	var emails, names []string
	for _, e := range resp.Data.Emails {
		if e.Value != "" {
			emails = append(emails, e.Value)
		}
		if e.FirstName != "" && e.LastName != "" {
			names = append(names, e.FirstName+" "+e.LastName)
		}
	}

	m.cache.Set(cacheKey, hunterData{Emails: emails, Names: names}, m.ttl)
	return emails, names
}

// enrichBreaches cruza los correos descubiertos contra HaveIBeenPwned. Sin
// key configurada se omite. Un 404 significa correo sin breaches conocidos.
func (m *Module) enrichBreaches(ctx context.Context, emails []string) map[string][]string {
	if m.hibpKey == "" || len(emails) == 0 {
		return nil
	}
	if len(emails) > maxBreachChecks {
		emails = emails[:maxBreachChecks]
	}

	headers := map[string]string{"hibp-api-key": m.hibpKey}
	breaches := make(map[string][]string, len(emails))

	for _, email := range emails {
		cacheKey := "harvester:hibp:" + email
		if v, ok := m.cache.Get(cacheKey); ok {
			breaches[email] = v.([]string)
			continue
		}

		endpoint := m.hibpURL + "/api/v3/breachedaccount/" + url.PathEscape(email) + "?truncateResponse=false"
		body, status, err := m.getStatus(ctx, endpoint, headers)
		if err != nil {
			m.Logger().Warn("breach check failed", "email", email, "error", err.Error())
			continue
		}

		switch status {
		case http.StatusOK:
			var hits []struct {
				Name string `json:"Name"`
			}
			if err := json.Unmarshal(body, &hits); err != nil {
				m.Logger().Warn("hibp response is not valid JSON", "error", err.Error())
				continue
			}
			names := make([]string, 0, len(hits))
			for _, hit := range hits {
				names = append(names, hit.Name)
			}
			breaches[email] = names
			m.cache.Set(cacheKey, names, m.ttl)
		case http.StatusNotFound:
			breaches[email] = []string{}
			m.cache.Set(cacheKey, []string{}, m.ttl)
		default:
			m.Logger().Warn("hibp returned unexpected status", "email", email, "status", status)
		}
	}
	return breaches
}

// get hace un GET y retorna el body solo ante 200.
func (m *Module) get(ctx context.Context, endpoint string, headers map[string]string) ([]byte, error) {
	body, status, err := m.getStatus(ctx, endpoint, headers)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", status)
	}
	return body, nil
}

func (m *Module) getStatus(ctx context.Context, endpoint string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// notableFindings resume los correos con breaches en orden estable.
func notableFindings(breaches map[string][]string) []string {
	emails := make([]string, 0, len(breaches))
	for email := range breaches {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	var findings []string
	for _, email := range emails {
		if names := breaches[email]; len(names) > 0 {
			findings = append(findings, fmt.Sprintf("%s found in breaches: %s", email, strings.Join(names, ", ")))
		}
	}
	return findings
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
