package models

import "fmt"

// CodeGenType selects the generation mode for an app. The value is stored
// on the App row and doubles as the directory prefix for generated output.
type CodeGenType string

const (
	CodeGenHTML       CodeGenType = "html"
	CodeGenMultiFile  CodeGenType = "multi_file"
	CodeGenVueProject CodeGenType = "vue_project"
)

// ParseCodeGenType validates a raw string coming from the API or the database.
func ParseCodeGenType(value string) (CodeGenType, error) {
	switch t := CodeGenType(value); t {
	case CodeGenHTML, CodeGenMultiFile, CodeGenVueProject:
		return t, nil
	default:
		return "", fmt.Errorf("unknown code generation type %q", value)
	}
}

func (t CodeGenType) Valid() bool {
	switch t {
	case CodeGenHTML, CodeGenMultiFile, CodeGenVueProject:
		return true
	}
	return false
}

func (t CodeGenType) String() string {
	return string(t)
}

// DisplayName returns the human readable label shown in listings.
func (t CodeGenType) DisplayName() string {
	switch t {
	case CodeGenHTML:
		return "Single-page HTML"
	case CodeGenMultiFile:
		return "Multi-file site"
	case CodeGenVueProject:
		return "Vue project"
	default:
		return string(t)
	}
}
