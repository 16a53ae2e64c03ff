package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	profile := writeFile(t, dir, "profile.md", "  Platform engineer.\n")
	project := writeFile(t, dir, "eks_project.md", "Online boutique on EKS.")

	docs, err := LoadDocuments([]string{"Profile=" + profile, project, " "})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, Document{Title: "Profile", Text: "Platform engineer."}, docs[0])
	assert.Equal(t, "Eks Project", docs[1].Title)
	assert.Equal(t, "Online boutique on EKS.", docs[1].Text)
}

func TestTitleFromPath(t *testing.T) {
	cases := []struct{ path, want string }{
		{"docs/eks_project.md", "Eks Project"},
		{"notes/ödön-bio.txt", "Ödön Bio"},
		{"résumé_été.md", "Résumé Été"},
		{"plain", "Plain"},
	}
	for _, c := range cases {
		got := titleFromPath(c.path)
		assert.Equal(t, c.want, got, c.path)
		assert.True(t, utf8.ValidString(got), c.path)
	}
}

func TestLoadDocuments_MissingFile(t *testing.T) {
	_, err := LoadDocuments([]string{filepath.Join(t.TempDir(), "nope.md")})
	assert.ErrorContains(t, err, "nope.md")
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Dimitri", []Document{
		{Title: "Profile", Text: "Platform engineer."},
		{Title: "Infra", Text: "ECS on Fargate."},
	})

	assert.True(t, strings.HasPrefix(prompt, "You are Dimitri's AI Assistant.\n"))
	assert.Contains(t, prompt, "--- Profile ---\nPlatform engineer.\n")
	assert.Contains(t, prompt, "--- Infra ---\nECS on Fargate.\n")
	assert.Contains(t, prompt, "- Answer concisely and clearly about Dimitri's background")
	assert.Less(t, strings.Index(prompt, "--- Profile ---"), strings.Index(prompt, "--- Infra ---"))
	assert.Less(t, strings.Index(prompt, "--- Infra ---"), strings.Index(prompt, "Instructions:"))
}
