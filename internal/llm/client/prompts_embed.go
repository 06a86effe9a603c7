package client

import (
	"embed"
	"fmt"

	"appforge/internal/models"
)

// embeddedPrompts holds the built-in prompt templates so packaged executables
// can load them without needing access to the source tree.
//
//go:embed prompts/*.txt
var embeddedPrompts embed.FS

// SystemPrompt returns the generation system prompt for a mode.
func SystemPrompt(genType models.CodeGenType) (string, error) {
	var name string
	switch genType {
	case models.CodeGenHTML:
		name = "codegen_html_system.txt"
	case models.CodeGenMultiFile:
		name = "codegen_multi_file_system.txt"
	case models.CodeGenVueProject:
		name = "codegen_vue_project_system.txt"
	default:
		return "", fmt.Errorf("no system prompt for generation type %q", genType)
	}
	data, err := embeddedPrompts.ReadFile("prompts/" + name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// AppNamePrompt returns the prompt used to derive an app name from its
// initial request.
func AppNamePrompt() string {
	data, err := embeddedPrompts.ReadFile("prompts/app_name_system.txt")
	if err != nil {
		return "You name web applications. Reply with a short name only."
	}
	return string(data)
}
