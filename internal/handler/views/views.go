// Package views renders the server-side HTML pages from embedded
// templates. View models are plain structs assembled by the handlers;
// no template reaches into the store.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/mindwellhq/mindwell/internal/catalog"
	"github.com/mindwellhq/mindwell/internal/model"
	"github.com/mindwellhq/mindwell/internal/scoring"
)

//go:embed templates/*.html
var tmplFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"pct": func(f float64) string { return fmt.Sprintf("%.1f", f) },
}).ParseFS(tmplFS, "templates/*.html"))

// Render writes the named page template with the given data.
func Render(w io.Writer, name string, data any) error {
	return pages.ExecuteTemplate(w, name, data)
}

// Page is the common chrome every page shares.
type Page struct {
	Title           string
	BasePath        string
	CSRFToken       string
	IsAuthenticated bool
	UserName        string
}

// AuthPage backs the login and signup forms.
type AuthPage struct {
	Page
	Error string
}

// ConsentPage backs the consent gate.
type ConsentPage struct {
	Page
	Body   string
	Accept string
}

// DashboardPage lists the user's recent attempts.
type DashboardPage struct {
	Page
	Greeting string
	Attempts []model.TestAttempt
}

// SelectPage lists available assessment types.
type SelectPage struct {
	Page
	Tests []catalog.TestDefinition
}

// MCQPage backs the multiple-choice stage.
type MCQPage struct {
	Page
	TestType          model.TestType
	Questions         []catalog.Question
	IsRealPatientData bool
}

// SubjectivePage backs the video-response stage.
type SubjectivePage struct {
	Page
	TestID    string
	TestType  model.TestType
	Questions []catalog.Question
}

// ResultsPage presents the computed score and recorded responses.
type ResultsPage struct {
	Page
	TestName  string
	Attempt   *model.TestAttempt
	Summary   scoring.Summary
	Responses []model.ResponseRecord
	HasScore  bool
}

// ErrorPage backs the generic error and not-found pages.
type ErrorPage struct {
	Page
	Heading string
	Message string
}
