// internal/platform/validator/validator.go
package validator

import (
	"net"
	"net/netip"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Target validators

// IsDomain verifica si un string es un dominio válido.
// Soporta dominios internacionales (IDN) y punycode.
func IsDomain(domain string) bool {
	if len(domain) == 0 || len(domain) > 253 {
		return false
	}

	domainRegex := regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)
	if !domainRegex.MatchString(domain) {
		return false
	}

	// Verificar que no sea una IP
	if net.ParseIP(domain) != nil {
		return false
	}

	return true
}

// IsIP verifica si un string es una dirección IP válida (v4 o v6).
func IsIP(ip string) bool {
	return net.ParseIP(ip) != nil
}

// IsTarget verifica si un string es un target válido: dominio o IP.
func IsTarget(target string) bool {
	target = NormalizeTarget(target)
	return IsIP(target) || IsDomain(target)
}

// NormalizeTarget normaliza un target a su forma canónica.
func NormalizeTarget(target string) string {
	target = strings.ToLower(strings.TrimSpace(target))
	target = strings.TrimSuffix(target, ".")
	target = strings.TrimPrefix(target, "https://")
	target = strings.TrimPrefix(target, "http://")
	if i := strings.IndexByte(target, '/'); i >= 0 {
		target = target[:i]
	}
	return target
}

// Scope patterns
//
// Un scope es una lista de patrones que delimitan qué targets puede tocar un
// job. Formas soportadas:
//   - host exacto:      "app.example.com", "203.0.113.7"
//   - wildcard sufijo:  "*.example.com" (incluye el propio example.com)
//   - rango CIDR:       "10.0.0.0/8" (solo aplica a targets IP)

// MatchesScope verifica si el target hace match con al menos un patrón.
// Una lista de patrones vacía nunca hace match.
func MatchesScope(target string, patterns []string) bool {
	target = NormalizeTarget(target)
	if target == "" {
		return false
	}

	for _, pattern := range patterns {
		if matchesPattern(target, pattern) {
			return true
		}
	}
	return false
}

func matchesPattern(target, pattern string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return false
	}

	// CIDR: solo aplica si el target es una IP
	if strings.Contains(pattern, "/") {
		prefix, err := netip.ParsePrefix(pattern)
		if err != nil {
			return false
		}
		addr, err := netip.ParseAddr(target)
		if err != nil {
			return false
		}
		return prefix.Contains(addr)
	}

	// Wildcard sufijo
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		if !ValidWildcardBase(suffix) {
			return false
		}
		return target == suffix || strings.HasSuffix(target, "."+suffix)
	}

	return target == pattern
}

// ValidWildcardBase verifica que la base de un patrón wildcard sea al menos
// un dominio registrable. Rechaza patrones que autorizarían un TLD o sufijo
// público completo ("*.com", "*.co.uk").
func ValidWildcardBase(base string) bool {
	if !IsDomain(base) {
		return false
	}
	suffix, icann := publicsuffix.PublicSuffix(base)
	if icann && suffix == base {
		return false
	}
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(base); err != nil || len(base) < len(etld1) {
		return false
	}
	return true
}

// ValidateScope verifica que todos los patrones de un scope estén bien formados.
// Retorna el primer patrón inválido encontrado (vacío si todos son válidos).
func ValidateScope(patterns []string) (string, bool) {
	for _, pattern := range patterns {
		p := strings.ToLower(strings.TrimSpace(pattern))
		switch {
		case p == "":
			return pattern, false
		case strings.Contains(p, "/"):
			if _, err := netip.ParsePrefix(p); err != nil {
				return pattern, false
			}
		case strings.HasPrefix(p, "*."):
			if !ValidWildcardBase(strings.TrimPrefix(p, "*.")) {
				return pattern, false
			}
		default:
			if !IsDomain(p) && !IsIP(p) {
				return pattern, false
			}
		}
	}
	return "", true
}

// SanitizeFilename convierte un target en un nombre de archivo seguro.
// Ejemplo: "example.com" -> "example_com"
func SanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, s)
}
