package prompts

import (
	"bytes"
	"sort"
	"text/template"
)

type PageSummary struct {
	PageType string
	Elements int
}

// RecorderPromptData fills the recorder system prompt template.
type RecorderPromptData struct {
	Domain      string
	MergePolicy string
	Modules     []string
	KnownPages  []PageSummary
	MaxTurns    int
}

func GenerateRecorderPrompt(baseTemplate string, data RecorderPromptData) (string, error) {
	sort.Slice(data.KnownPages, func(i, j int) bool {
		return data.KnownPages[i].PageType < data.KnownPages[j].PageType
	})

	tmpl, err := template.New("recorder").Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
