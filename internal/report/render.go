package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/costnotify/internal/cli"
	"github.com/theirongolddev/costnotify/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer renders reports to HTML.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded report template.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"money":    func(d decimal.Decimal) string { return cli.FormatMoney(d, 0) },
		"money2":   func(d decimal.Decimal) string { return cli.FormatMoney(d, 2) },
		"provider": func(p model.Provider) string { return p.Label() },
	}

	tmpl, err := template.New("report.html.tmpl").
		Funcs(sprig.HtmlFuncMap()).
		Funcs(funcs).
		ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// HTML renders one report.
func (r *Renderer) HTML(rep Report) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, rep); err != nil {
		return "", fmt.Errorf("rendering report for %s: %w", rep.Project, err)
	}
	return buf.String(), nil
}
