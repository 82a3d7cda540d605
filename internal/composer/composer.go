package composer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/triage-bridge/internal/appsec"
	"github.com/scan-io-git/triage-bridge/internal/bridge"
	"github.com/scan-io-git/triage-bridge/internal/findings"
)

// Composer turns finding snapshots into themed HTML documents with embedded action controls.
type Composer struct {
	converter     Converter
	theme         ThemeProvider
	links         *appsec.Links
	queryFunction string
	bindingScript string
	tmpl          *template.Template
	logger        hclog.Logger

	// controlToken marks the controls of this composer's documents; finding
	// content cannot know it.
	controlToken string
}

// Option configures a Composer.
type Option func(*Composer)

// WithConverter replaces the default goldmark converter.
func WithConverter(c Converter) Option {
	return func(cmp *Composer) { cmp.converter = c }
}

// WithTheme sets the theme provider. The default follows the terminal background.
func WithTheme(t ThemeProvider) Option {
	return func(cmp *Composer) { cmp.theme = t }
}

// WithLinks enables deep links from the title to the finding's portal record.
func WithLinks(l appsec.Links) Option {
	return func(cmp *Composer) { cmp.links = &l }
}

// WithQueryFunction names the global the click interceptor calls.
func WithQueryFunction(name string) Option {
	return func(cmp *Composer) { cmp.queryFunction = name }
}

// WithBindingScript injects host-specific script that defines the query function.
func WithBindingScript(js string) Option {
	return func(cmp *Composer) { cmp.bindingScript = js }
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(cmp *Composer) { cmp.logger = l }
}

// New creates a Composer.
func New(opts ...Option) (*Composer, error) {
	c := &Composer{
		converter:     NewGoldmarkConverter(),
		theme:         EnvTheme{},
		queryFunction: bridge.DefaultQueryFunction,
		controlToken:  uuid.NewString(),
		logger:        hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	tmpl, err := template.ParseFS(assets, "assets/document.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse document template: %w", err)
	}
	c.tmpl = tmpl
	return c, nil
}

// Markdown returns the annotated markdown of f.
func (c *Composer) Markdown(f findings.Finding) string {
	return Markdown(f, c.links)
}

// Compose renders f into a complete HTML document. The result depends only on
// f, the current theme and the composer settings.
func (c *Composer) Compose(f findings.Finding) (string, error) {
	var body string
	var err error
	if oc, ok := c.converter.(OwnedConverter); ok {
		controls := Controls{Token: c.controlToken, Hrefs: actionHrefs(f)}
		body, err = oc.ConvertFor(markdown(f, c.links, c.controlToken), controls)
	} else {
		body, err = c.converter.Convert(c.Markdown(f))
	}
	if err != nil {
		return "", fmt.Errorf("failed to convert finding %d to HTML: %w", f.ID, err)
	}

	dark := c.theme.IsDark()
	css, err := themeCSS(dark)
	if err != nil {
		return "", err
	}
	themeClass := "theme-light"
	if dark {
		themeClass = "theme-dark"
	}

	data := struct {
		Title         string
		CSS           template.CSS
		ThemeClass    string
		Body          template.HTML
		BindingScript template.JS
		ClickScript   template.JS
	}{
		Title:         fmt.Sprintf("#%d %s", f.ID, f.Name),
		CSS:           template.CSS(css),
		ThemeClass:    themeClass,
		Body:          template.HTML(body),
		BindingScript: template.JS(c.bindingScript),
		ClickScript:   template.JS(bridge.ClickInterceptor(c.queryFunction)),
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render document for finding %d: %w", f.ID, err)
	}
	c.logger.Debug("composed finding document", "finding_id", f.ID, "dark", dark)
	return buf.String(), nil
}
