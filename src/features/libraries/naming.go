package libraries

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/unidecode"
)

const fallbackName = "collection.xml"

// DownloadName transliterates a stored filename to a plain ASCII name ending in .xml.
func DownloadName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = unidecode.Unidecode(base)

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	name := strings.Trim(b.String(), "._-")
	if name == "" || strings.EqualFold(name, "xml") {
		return fallbackName
	}
	if !strings.HasSuffix(strings.ToLower(name), ".xml") {
		name += ".xml"
	}
	return name
}
