package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Document is one static reference text embedded into the persona prompt.
type Document struct {
	Title string
	Text  string
}

// LoadDocuments reads every spec once. A spec is either "Title=path" or a bare
// path, in which case the title is derived from the file name.
func LoadDocuments(specs []string) ([]Document, error) {
	docs := make([]Document, 0, len(specs))
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		title, path := parseSpec(spec)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read persona document %s: %w", path, err)
		}
		docs = append(docs, Document{Title: title, Text: strings.TrimSpace(string(data))})
	}
	return docs, nil
}

func parseSpec(spec string) (title, path string) {
	if i := strings.Index(spec, "="); i > 0 {
		return strings.TrimSpace(spec[:i]), strings.TrimSpace(spec[i+1:])
	}
	return titleFromPath(spec), spec
}

// titleFromPath turns "docs/eks_project.md" into "Eks Project".
func titleFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.FieldsFunc(base, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
