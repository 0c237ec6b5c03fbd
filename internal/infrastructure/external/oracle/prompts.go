package oracle

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

const draftPromptTemplate = `You are the Oracle of a guild that awards badges for real-world mastery.
Design a rigorous badge curriculum for the topic "{{.Topic}}"{{if .Goal}} with the goal "{{.Goal}}"{{end}}.
Model it on high-level achievement programs such as merit badges.

Include:
1. A dramatic, guild-inspired title.
2. A brief, evocative description (max 50 words).
3. Exactly 8 to 10 specific, progressive requirements covering safety and preparation,
   core theory, a significant practical field project, and a community or mentorship task.

Pick a primary domain from: {{.Domains}}.
Optionally pick up to two secondary domains from the same list.
Rate complexity from 1 (shortest, least complex) to 5 (longest, most complex).

Respond ONLY with a JSON object of this shape, no other text:
{"title": string, "description": string, "domain": string, "secondaryDomains": [string], "difficulty": int, "requirements": [string]}`

const recommendPromptTemplate = `The member has mastered: [{{join .Owned}}]. They are interested in: [{{join .Interests}}].
Act as the Guild Oracle. Provide a CONCISE revelation.
Structure:
1. One short mystical greeting (max 15 words).
2. Exactly three recommended mastery paths (Title: 1-sentence description).
3. One closing sentence (max 15 words).
TOTAL LIMIT: 100 words. Be sharp, evocative, and brief.`

const requirementPromptTemplate = `A guild badge titled "{{.Title}}" is described as: {{.Description}}
{{if .Existing}}It already asks the member to:
{{range .Existing}}- {{.}}
{{end}}{{end}}
Suggest ONE further practical requirement that can be proven with a photo, link or short note.
Respond with the requirement sentence only.`

const complexityPromptTemplate = `Rate the complexity of this guild badge from 1 (shortest, least complex) to 5 (longest, most complex).

Title: {{.Title}}
Description: {{.Description}}
{{if .Requirements}}Requirements:
{{range .Requirements}}- {{.}}
{{end}}{{end}}
Respond with a single digit only.`

var prompts = template.Must(template.New("oracle").Funcs(template.FuncMap{
	"join": joinList,
}).Parse(`{{define "draft"}}` + draftPromptTemplate + `{{end}}` +
	`{{define "recommend"}}` + recommendPromptTemplate + `{{end}}` +
	`{{define "requirement"}}` + requirementPromptTemplate + `{{end}}` +
	`{{define "complexity"}}` + complexityPromptTemplate + `{{end}}`))

type draftData struct {
	Topic   string
	Goal    string
	Domains string
}

type recommendData struct {
	Owned     []string
	Interests []string
}

type requirementData struct {
	Title       string
	Description string
	Existing    []string
}

type complexityData struct {
	Title        string
	Description  string
	Requirements []string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}

func joinList(items []string) string {
	if len(items) == 0 {
		return "none yet"
	}
	return strings.Join(items, ", ")
}
