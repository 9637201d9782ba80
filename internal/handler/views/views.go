// Package views renders the HTML pages. Every page is a templ.Component
// backed by an embedded html/template file sharing one layout.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/studybuddy/internal/i18n"
	"github.com/pavelanni/studybuddy/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = mustParsePages("index", "explain", "summarize", "quiz", "flashcards", "error")

// ctxFuncs are bound per render; the placeholders only satisfy the parser.
var ctxFuncs = template.FuncMap{
	"t":     func(string) string { return "" },
	"td":    func(string, ...any) string { return "" },
	"tp":    func(string, int) string { return "" },
	"path":  func(string) string { return "" },
	"csrf":  func() string { return "" },
	"lang":  func() string { return "" },
	"langs": func() []string { return nil },
}

var staticFuncs = template.FuncMap{
	"add":      func(a, b int) int { return a + b },
	"letter":   func(i int) string { return string(rune('A' + i)) },
	"optionID": optionID,
}

// optionID builds the message ID of an option value: ("Style", "Bullet
// Points") gives "StyleBulletPoints".
func optionID(prefix string, v any) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, w := range strings.Fields(fmt.Sprint(v)) {
		r, size := utf8.DecodeRuneInString(w)
		sb.WriteRune(unicode.ToUpper(r))
		sb.WriteString(w[size:])
	}
	return sb.String()
}

func mustParsePages(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t := template.New("layout.html").Funcs(ctxFuncs).Funcs(staticFuncs)
		out[name] = template.Must(t.ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		))
	}
	return out
}

func funcsFor(ctx context.Context) template.FuncMap {
	basePath := model.BasePathFromContext(ctx)
	return template.FuncMap{
		"t": func(id string) string { return appI18n.T(ctx, id) },
		"td": func(id string, kv ...any) string {
			data := make(map[string]any, len(kv)/2)
			for i := 0; i+1 < len(kv); i += 2 {
				data[fmt.Sprint(kv[i])] = kv[i+1]
			}
			return appI18n.Td(ctx, id, data)
		},
		"tp":    func(id string, n int) string { return appI18n.Tp(ctx, id, n) },
		"path":  func(p string) string { return basePath + p },
		"csrf":  func() string { return model.CSRFTokenFromContext(ctx) },
		"lang":  func() string { return appI18n.Lang(ctx) },
		"langs": appI18n.Supported,
	}
}

// page wraps a named page template as a component. Data is available to the
// template as .Page; the layout reads .Title and .Active.
func page(name, titleID string, active string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		base, ok := pages[name]
		if !ok {
			return fmt.Errorf("unknown page %q", name)
		}
		t, err := base.Clone()
		if err != nil {
			return err
		}
		t.Funcs(funcsFor(ctx))
		return t.Execute(w, layoutData{Title: titleID, Active: active, Page: data})
	})
}

type layoutData struct {
	Title  string
	Active string
	Page   any
}

// StaticHandler serves the embedded stylesheet and other assets.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
