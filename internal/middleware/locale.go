package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/austinhq/austin-web/internal/config"
	"github.com/austinhq/austin-web/internal/logger"
	"github.com/austinhq/austin-web/internal/view"
)

// localeCookieMaxAge keeps an explicit locale choice for a year
const localeCookieMaxAge = 365 * 24 * 60 * 60

// localeResolver picks one of the supported locales for a request
type localeResolver struct {
	supported []language.Tag
	matcher   language.Matcher
	param     string
	cookie    string
}

func newLocaleResolver(cfg config.LocaleConfig) *localeResolver {
	def, err := language.Parse(cfg.Default)
	if err != nil {
		def = language.SimplifiedChinese
	}

	// The default goes first so the matcher falls back to it
	supported := []language.Tag{def}
	for _, s := range cfg.Supported {
		tag, err := language.Parse(s)
		if err != nil || tag.String() == def.String() {
			continue
		}
		supported = append(supported, tag)
	}

	return &localeResolver{
		supported: supported,
		matcher:   language.NewMatcher(supported),
		param:     cfg.Param,
		cookie:    cfg.Cookie,
	}
}

// match returns the supported locale closest to the given tags, and
// whether any of them was a real match.
func (r *localeResolver) match(tags ...language.Tag) (string, bool) {
	if len(tags) == 0 {
		return r.supported[0].String(), false
	}
	_, idx, conf := r.matcher.Match(tags...)
	if conf == language.No {
		return r.supported[0].String(), false
	}
	return r.supported[idx].String(), true
}

func (r *localeResolver) fromString(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	return r.match(tag)
}

// resolve applies, in order: the change parameter, the locale cookie,
// Accept-Language and finally the default locale. It reports whether the
// locale was explicitly changed by the change parameter.
func (r *localeResolver) resolve(c *gin.Context) (locale string, changed bool) {
	if l, ok := r.fromString(c.Query(r.param)); ok {
		return l, true
	}

	if v, err := c.Cookie(r.cookie); err == nil {
		if l, ok := r.fromString(v); ok {
			return l, false
		}
	}

	if accept := c.GetHeader("Accept-Language"); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			if l, ok := r.match(tags...); ok {
				return l, false
			}
		}
	}

	l, _ := r.match()
	return l, false
}

// Locale resolves the request locale and exposes it to handlers, views
// and logs. Passing ?lang=<tag> switches the locale and stores the choice
// in a cookie.
func Locale(cfg config.LocaleConfig) gin.HandlerFunc {
	resolver := newLocaleResolver(cfg)

	return func(c *gin.Context) {
		locale, changed := resolver.resolve(c)

		if changed {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(resolver.cookie, locale, localeCookieMaxAge, "/", "", false, true)
		}

		c.Set(view.LocaleKey, locale)
		c.Header("Content-Language", locale)
		c.Request = c.Request.WithContext(logger.WithLocale(c.Request.Context(), locale))

		c.Next()
	}
}
