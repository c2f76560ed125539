package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/austinhq/austin-web/internal/apierror"
	"github.com/austinhq/austin-web/internal/config"
	"github.com/austinhq/austin-web/internal/logger"
)

// wildcardOrigin matches origins of the form scheme://<label><suffix>,
// e.g. https://*.example.com matches https://app.example.com only.
type wildcardOrigin struct {
	scheme string
	suffix string
}

// normalizeOrigin lowercases an origin and drops a trailing slash, so
// configured and received origins compare the way browsers send them.
func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(origin), "/"))
}

// parseWildcardOrigin returns nil unless pattern is a single leading
// subdomain wildcard on a domain with at least two labels.
func parseWildcardOrigin(pattern string) *wildcardOrigin {
	pattern = normalizeOrigin(pattern)
	var scheme string
	switch {
	case strings.HasPrefix(pattern, "https://"):
		scheme = "https://"
	case strings.HasPrefix(pattern, "http://"):
		scheme = "http://"
	default:
		return nil
	}

	rest := strings.TrimPrefix(pattern, scheme)
	if !strings.HasPrefix(rest, "*.") || strings.Count(rest, "*") != 1 {
		return nil
	}

	suffix := rest[1:]
	// ".example.com" has two labels; ".com" is too broad
	if strings.Count(suffix, ".") < 2 {
		return nil
	}

	return &wildcardOrigin{scheme: scheme, suffix: suffix}
}

// matches expects a normalized origin. Origins with an explicit port
// never match, since the pattern names none.
func (w *wildcardOrigin) matches(origin string) bool {
	if !strings.HasPrefix(origin, w.scheme) {
		return false
	}
	host := strings.TrimPrefix(origin, w.scheme)
	if !strings.HasSuffix(host, w.suffix) {
		return false
	}

	label := strings.TrimSuffix(host, w.suffix)
	if label == "" {
		return false
	}
	for _, r := range label {
		if !(r == '-' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// corsPolicy is the compiled form of config.CORSConfig
type corsPolicy struct {
	allowAll         bool
	exact            map[string]bool
	wildcards        []*wildcardOrigin
	methods          map[string]bool
	allowMethods     string
	allowAnyHeader   bool
	allowHeaders     string
	allowCredentials bool
	maxAge           string
}

func newCORSPolicy(cfg config.CORSConfig) *corsPolicy {
	p := &corsPolicy{
		exact:            make(map[string]bool),
		methods:          make(map[string]bool),
		allowCredentials: cfg.AllowCredentials,
	}

	for _, origin := range cfg.AllowedOrigins {
		origin = normalizeOrigin(origin)
		switch {
		case origin == "":
		case origin == "*":
			p.allowAll = true
		default:
			if w := parseWildcardOrigin(origin); w != nil {
				p.wildcards = append(p.wildcards, w)
			} else {
				p.exact[origin] = true
			}
		}
	}

	methods := make([]string, 0, len(cfg.AllowedMethods))
	for _, m := range cfg.AllowedMethods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" || p.methods[m] {
			continue
		}
		p.methods[m] = true
		methods = append(methods, m)
	}
	p.allowMethods = strings.Join(methods, ", ")

	headers := make([]string, 0, len(cfg.AllowedHeaders))
	for _, h := range cfg.AllowedHeaders {
		if h == "*" {
			p.allowAnyHeader = true
			continue
		}
		headers = append(headers, h)
	}
	p.allowHeaders = strings.Join(headers, ", ")

	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}
	return p
}

func (p *corsPolicy) originAllowed(origin string) bool {
	origin = normalizeOrigin(origin)
	if p.allowAll || p.exact[origin] {
		return true
	}
	for _, w := range p.wildcards {
		if w.matches(origin) {
			return true
		}
	}
	return false
}

// CORS applies the configured cross-origin policy. Requests without an
// Origin header pass through untouched. Preflight requests are answered
// here: 204 when allowed, 403 otherwise.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		preflight := c.Request.Method == http.MethodOptions
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		if !policy.originAllowed(origin) {
			if preflight {
				logger.Ctx(c.Request.Context()).Debug("cors preflight rejected",
					logger.String("origin", origin),
				)
				apierror.WriteProblem(c, apierror.NewForbiddenError(apierror.GetRequestID(c), "Origin is not allowed"))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		// A literal "*" cannot be combined with credentials, so the
		// origin is echoed instead.
		if policy.allowAll && !policy.allowCredentials {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
		}
		if policy.allowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if !preflight {
			c.Next()
			return
		}

		if requested := c.GetHeader("Access-Control-Request-Method"); requested != "" && !policy.methods[strings.ToUpper(requested)] {
			apierror.WriteProblem(c, apierror.NewForbiddenError(apierror.GetRequestID(c), "Method is not allowed"))
			c.Abort()
			return
		}

		h.Set("Access-Control-Allow-Methods", policy.allowMethods)
		if policy.allowAnyHeader {
			if requested := c.GetHeader("Access-Control-Request-Headers"); requested != "" {
				h.Set("Access-Control-Allow-Headers", requested)
			}
		} else if policy.allowHeaders != "" {
			h.Set("Access-Control-Allow-Headers", policy.allowHeaders)
		}
		if policy.maxAge != "" {
			h.Set("Access-Control-Max-Age", policy.maxAge)
		}

		c.AbortWithStatus(http.StatusNoContent)
	}
}
