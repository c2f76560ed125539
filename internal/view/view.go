// Package view renders classified errors as HTML pages or problem+json.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/austinhq/austin-web/internal/apierror"
	"github.com/austinhq/austin-web/internal/classifier"
)

//go:embed templates/*.html
var templateFS embed.FS

// LocaleKey is the gin context key holding the resolved request locale.
const LocaleKey = "locale"

// fallbackView is rendered when an outcome has no template of its own.
const fallbackView = classifier.DefaultView

// statusByView holds non-numeric views that answer with a specific status.
var statusByView = map[string]int{
	"locked": http.StatusLocked,
}

// StatusFor returns the HTTP status used for a view. Views named by a
// 4xx/5xx status code answer with that code; others default to 500.
func StatusFor(view string) int {
	if status, ok := statusByView[view]; ok {
		return status
	}
	if len(view) == 3 {
		if code, err := strconv.Atoi(view); err == nil && code >= 400 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// Model is the data handed to error templates.
type Model struct {
	Lang         string
	Status       int
	Title        string
	Message      string
	Error        string
	View         string
	Category     string
	RequestID    string
	RequestLabel string
	HomeLabel    string
}

// Options configure a Renderer.
type Options struct {
	// DefaultLocale is used when the request carries no resolved locale.
	DefaultLocale string
	// ExposeDetail includes the error description in responses.
	ExposeDetail bool
}

// Renderer renders classification results. It is safe for concurrent use.
type Renderer struct {
	tmpl          *template.Template
	views         map[string]bool
	catalog       catalog.Catalog
	matcher       language.Matcher
	defaultLocale language.Tag
	exposeDetail  bool
}

// New parses the embedded templates.
func New(opts Options) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse error templates: %w", err)
	}

	views := make(map[string]bool)
	for _, t := range tmpl.Templates() {
		name := t.Name()
		if strings.HasSuffix(name, ".html") && name != "layout.html" {
			views[strings.TrimSuffix(name, ".html")] = true
		}
	}

	cat, err := newCatalog()
	if err != nil {
		return nil, err
	}

	supported := []language.Tag{language.SimplifiedChinese, language.English}
	def := language.SimplifiedChinese
	if opts.DefaultLocale != "" {
		if tag, err := language.Parse(opts.DefaultLocale); err == nil {
			def = tag
		}
	}

	return &Renderer{
		tmpl:          tmpl,
		views:         views,
		catalog:       cat,
		matcher:       language.NewMatcher(supported),
		defaultLocale: def,
		exposeDetail:  opts.ExposeDetail,
	}, nil
}

// HasView reports whether a dedicated template exists for view.
func (r *Renderer) HasView(view string) bool {
	return r.views[view]
}

// Render writes res using content negotiation: HTML by default, problem
// details for clients that ask for JSON.
func (r *Renderer) Render(c *gin.Context, res classifier.Result) {
	status := StatusFor(res.View)

	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON, apierror.ContentTypeProblemJSON) {
	case gin.MIMEJSON, apierror.ContentTypeProblemJSON:
		apierror.WriteProblem(c, apierror.FromResult(apierror.GetRequestID(c), res, status, r.exposeDetail))
	default:
		name := res.View
		if !r.views[name] {
			name = fallbackView
		}
		c.Render(status, render.HTML{
			Template: r.tmpl,
			Name:     name + ".html",
			Data:     r.model(c, res, status),
		})
	}
}

func (r *Renderer) model(c *gin.Context, res classifier.Result, status int) Model {
	tag := r.localeOf(c)
	p := message.NewPrinter(tag, message.Catalog(r.catalog))

	key := res.View
	if !r.views[key] {
		key = fallbackView
	}

	m := Model{
		Lang:         tag.String(),
		Status:       status,
		Title:        p.Sprintf("title." + key),
		Message:      p.Sprintf("message." + key),
		View:         res.View,
		Category:     res.Category.String(),
		RequestID:    apierror.GetRequestID(c),
		RequestLabel: p.Sprintf("label.request_id"),
		HomeLabel:    p.Sprintf("label.home"),
	}
	if r.exposeDetail {
		m.Error = res.Detail
	}
	return m
}

// localeOf picks the catalog language for the request locale.
func (r *Renderer) localeOf(c *gin.Context) language.Tag {
	tag := r.defaultLocale
	if v, ok := c.Get(LocaleKey); ok {
		if s, ok := v.(string); ok {
			if parsed, err := language.Parse(s); err == nil {
				tag = parsed
			}
		}
	}
	matched, _, conf := r.matcher.Match(tag)
	if conf == language.No {
		matched, _, _ = r.matcher.Match(r.defaultLocale)
	}
	base, _ := matched.Base()
	if base.String() == "zh" {
		return language.SimplifiedChinese
	}
	return language.English
}
