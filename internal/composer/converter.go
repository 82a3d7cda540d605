package composer

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/scan-io-git/triage-bridge/internal/bridge"
)

// Converter turns markdown into an HTML fragment.
type Converter interface {
	Convert(markdown string) (string, error)
}

// Controls identifies the action controls the composer emitted for a document.
type Controls struct {
	// Token is the link title every emitted control carries.
	Token string
	// Hrefs are the action destinations the finding is eligible for.
	Hrefs []string
}

func (c Controls) allows(link *ast.Link) bool {
	if c.Token == "" || string(link.Title) != c.Token {
		return false
	}
	for _, href := range c.Hrefs {
		if string(link.Destination) == href {
			return true
		}
	}
	return false
}

// OwnedConverter is a Converter that keeps only the emitted action controls
// live and disarms every other action link.
type OwnedConverter interface {
	Converter
	ConvertFor(markdown string, controls Controls) (string, error)
}

var controlsKey = parser.NewContextKey()

// GoldmarkConverter renders GitHub flavored markdown. Raw HTML in finding
// content is dropped; action links get button classes and external links open
// in a new context so the click interceptor forwards them to the host.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates the default converter.
func NewGoldmarkConverter() *GoldmarkConverter {
	return &GoldmarkConverter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithASTTransformers(util.Prioritized(linkAnnotator{}, 100)),
			),
		),
	}
}

// Convert renders markdown. Every action link in it is disarmed.
func (c *GoldmarkConverter) Convert(markdown string) (string, error) {
	return c.convert(markdown, parser.NewContext())
}

// ConvertFor renders markdown keeping only the action links listed in controls.
func (c *GoldmarkConverter) ConvertFor(markdown string, controls Controls) (string, error) {
	pctx := parser.NewContext()
	pctx.Set(controlsKey, controls)
	return c.convert(markdown, pctx)
}

func (c *GoldmarkConverter) convert(markdown string, pctx parser.Context) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(markdown), &buf, parser.WithContext(pctx)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type linkAnnotator struct{}

func (linkAnnotator) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	controls, _ := pc.Get(controlsKey).(Controls)
	source := reader.Source()
	var planted []*ast.AutoLink
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			if isAction(string(node.Destination)) {
				allowed := controls.allows(node)
				node.Title = nil
				if !allowed {
					node.Destination = []byte("#")
					return ast.WalkContinue, nil
				}
			}
			annotateLink(node, string(node.Destination))
		case *ast.AutoLink:
			// <reject-finding:42> parses as an autolink; it never is a control
			if isAction(string(node.URL(source))) {
				planted = append(planted, node)
				return ast.WalkSkipChildren, nil
			}
			annotateLink(node, string(node.URL(source)))
		}
		return ast.WalkContinue, nil
	})

	for _, node := range planted {
		if parent := node.Parent(); parent != nil {
			parent.ReplaceChild(parent, node, ast.NewString(node.Label(source)))
		}
	}
}

func isAction(destination string) bool {
	msg, err := bridge.Decode(destination)
	return err == nil && msg.Kind.IsAction()
}

func annotateLink(n ast.Node, destination string) {
	if msg, err := bridge.Decode(destination); err == nil && msg.Kind.IsAction() {
		class := "action-button"
		if msg.Kind == bridge.KindRejectForever {
			class += " action-button-forever"
		}
		n.SetAttributeString("class", []byte(class))
		return
	}

	lower := strings.ToLower(destination)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "www.") {
		n.SetAttributeString("target", []byte("_blank"))
		n.SetAttributeString("rel", []byte("noopener noreferrer"))
	}
}
