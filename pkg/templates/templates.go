package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"deployhub/pkg/fileutil"
)

// Template names
const (
	Base      = "base"
	Dashboard = "dashboard"
)

//go:embed defaults/*.html.tmpl
var defaults embed.FS

// GetTemplatePaths returns the override search paths for a template
func GetTemplatePaths(templateName string) []string {
	filename := templateName + ".html.tmpl"
	return []string{
		filepath.Join(".", "templates", filename),
		filepath.Join(".", "config", "templates", filename),
		filepath.Join(fileutil.SystemConfigDir, "templates", filename),
	}
}

// GetTemplate returns the raw template content by name.
// Templates are loaded from the filesystem in the following order, falling
// back to the copy built into the binary:
// 1. ./templates/<name>.html.tmpl
// 2. ./config/templates/<name>.html.tmpl
// 3. /etc/deployhub/templates/<name>.html.tmpl
func GetTemplate(name string) (string, error) {
	if !ValidateTemplate(name) {
		return "", fmt.Errorf("unknown template: %s", name)
	}

	if path := fileutil.SearchPathsOptional(GetTemplatePaths(name)); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read template %s: %w", path, err)
		}
		return string(content), nil
	}

	content, err := defaults.ReadFile("defaults/" + name + ".html.tmpl")
	if err != nil {
		return "", fmt.Errorf("template file not found: %s", name)
	}
	return string(content), nil
}

// Page is a parsed page template wrapped in the base layout
type Page struct {
	name string
	tmpl *template.Template
}

// Load parses the base layout together with the named page
func Load(name string, funcs template.FuncMap) (*Page, error) {
	base, err := GetTemplate(Base)
	if err != nil {
		return nil, err
	}
	page, err := GetTemplate(name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Funcs(funcs).Parse(base + page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	return &Page{name: name, tmpl: tmpl}, nil
}

// Execute renders the page. Output is buffered so a failing template never
// writes a partial page.
func (p *Page) Execute(w io.Writer, data any) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, Base, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", p.name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// ListTemplates returns a list of all available template names.
func ListTemplates() []string {
	return []string{
		Base,
		Dashboard,
	}
}

// ValidateTemplate checks if a template name is valid.
func ValidateTemplate(name string) bool {
	validNames := map[string]bool{
		Base:      true,
		Dashboard: true,
	}
	return validNames[name]
}
