// Package views renders the admin screens. Markup stays deliberately
// plain; styling is not this service's concern.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recipe-admin/internal/domain"
)

//go:embed templates/*.gohtml
var files embed.FS

var funcs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02")
	},
	"categoryNames": func(categories []domain.Category) string {
		names := ""
		for i, cat := range categories {
			if i > 0 {
				names += ", "
			}
			names += cat.Name
		}
		return names
	},
	"pages": func(total int) []int {
		if total < 1 {
			total = 1
		}
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	},
}

// Views holds the parsed template set.
type Views struct {
	t *template.Template
}

// New parses the embedded templates.
func New() (*Views, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(files, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Views{t: t}, nil
}

// Page is the data envelope every screen receives.
type Page struct {
	Title    string
	Identity *domain.Identity
	Notice   string
	Errors   map[string]string
	Data     any
}

// Render executes a template into the response.
func (v *Views) Render(c *fiber.Ctx, name string, page Page) error {
	var buf bytes.Buffer
	if err := v.t.ExecuteTemplate(&buf, name, page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
