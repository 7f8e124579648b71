// Package view renders the server-side pages with html/template.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"etuition/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names
const (
	PageLoading          = "loading"
	PageForbidden        = "forbidden"
	PageNotFound         = "not_found"
	PageError            = "error"
	PageLogin            = "login"
	PageRegister         = "register"
	PageHome             = "home"
	PageStudentDashboard = "student_dashboard"
	PageTutorDashboard   = "tutor_dashboard"
	PageAdminDashboard   = "admin_dashboard"
	PageProfile          = "profile"
)

// Page is the data every template receives.
type Page struct {
	Title   string
	Session entity.Session
	Role    entity.Role
	From    string
	Error   string
	Flash   string
	Data    any
}

// NotFoundData is rendered by the not-found page.
type NotFoundData struct {
	Seconds int
	Home    string
}

// ForbiddenData is rendered by the forbidden page.
type ForbiddenData struct {
	Back string
	Home string
}

// Renderer implements echo.Renderer over one template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	return newRenderer(templateFS)
}

func newRenderer(fsys fs.FS) (*Renderer, error) {
	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "list templates")
	}

	funcs := template.FuncMap{
		"lower": strings.ToLower,
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		if name == "layout" {
			continue
		}

		tmpl, err := template.New("layout").Funcs(funcs).ParseFS(fsys, "templates/layout.html", file)
		if err != nil {
			return nil, errors.Wrapf(err, "parse template %s", name)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages}, nil
}

// Render implements echo.Renderer. The page is executed into a buffer so a
// template error never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return errors.Wrapf(err, "render %s", name)
	}
	_, err := buf.WriteTo(w)

	return errors.WithStack(err)
}
