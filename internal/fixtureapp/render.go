package fixtureapp

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/gin-gonic/gin"
)

const templateDir = "templates"

//go:embed templates/*.html
var templateFS embed.FS

// embedLoader serves pongo2 templates from the embedded templates directory.
type embedLoader struct {
	fs embed.FS
}

// Abs maps a template name to its path in the embedded tree. pongo2 passes
// names it already resolved back through Abs for extends and include.
func (l embedLoader) Abs(base, name string) string {
	if path.IsAbs(name) {
		return name[1:]
	}
	if strings.HasPrefix(name, templateDir+"/") {
		return name
	}
	return path.Join(templateDir, name)
}

func (l embedLoader) Get(name string) (io.Reader, error) {
	data, err := l.fs.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// renderer renders pages with pongo2.
type renderer struct {
	set *pongo2.TemplateSet
}

func newRenderer() *renderer {
	return &renderer{set: pongo2.NewSet("fixtureapp", embedLoader{fs: templateFS})}
}

// HTML renders a page template with data.
func (r *renderer) HTML(c *gin.Context, code int, name string, data gin.H) {
	tmpl, err := r.set.FromFile(name)
	if err != nil {
		c.String(http.StatusInternalServerError, "Template not found: %s", name)
		return
	}
	out, err := tmpl.ExecuteBytes(pongo2.Context(data))
	if err != nil {
		c.String(http.StatusInternalServerError, "Template execution error: %v", err)
		return
	}
	c.Data(code, "text/html; charset=utf-8", out)
}

// check parses every template so broken markup fails at startup.
func (r *renderer) check() error {
	entries, err := templateFS.ReadDir(templateDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := r.set.FromFile(e.Name()); err != nil {
			return fmt.Errorf("template %s: %w", e.Name(), err)
		}
	}
	return nil
}
