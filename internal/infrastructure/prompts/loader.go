package prompts

import (
	_ "embed"
)

//go:embed recorder.txt
var RecorderSystemPrompt string
