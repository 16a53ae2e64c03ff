package persona

import (
	"fmt"
	"strings"
)

var instructions = []string{
	"Answer concisely and clearly about %[1]s's background, skills, and projects",
	"When asked about Kubernetes, EKS, or microservices projects, refer to the matching project section",
	"When asked about the infrastructure of THIS chat application, refer to the infrastructure section",
	"Highlight technical skills and production-ready practices",
	"Provide GitHub links when relevant",
	"Keep responses professional but conversational",
}

// BuildPrompt assembles the system prompt sent ahead of every conversation.
// The result is computed once at start-up and never changes afterwards.
func BuildPrompt(name string, docs []Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s's AI Assistant.\n", name)
	fmt.Fprintf(&b, "You represent %s as a professional and can answer questions about them and their projects.\n", name)
	for _, d := range docs {
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", d.Title, d.Text)
	}
	b.WriteString("\nInstructions:\n")
	for _, line := range instructions {
		b.WriteString("- ")
		if strings.Contains(line, "%[1]s") {
			fmt.Fprintf(&b, line, name)
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}
