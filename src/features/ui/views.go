package ui

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gofiber/template/html/v2"
	"github.com/rekorded/rekorded/src/music"
)

//go:embed views
var viewsFS embed.FS

// NewEngine builds the HTML view engine over the embedded templates.
func NewEngine(debug bool) *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(fmt.Sprintf("embedded views missing: %v", err))
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.Debug(debug)

	engine.AddFunc("percent", func(part, total int) int {
		if total == 0 {
			return 0
		}
		return (part*100 + total/2) / total
	})
	engine.AddFunc("severityClass", func(sev music.Severity) string {
		if sev == music.SeverityError {
			return "issue-error"
		}
		return "issue-warning"
	})
	engine.AddFunc("join", strings.Join)
	return engine
}
