package codegen

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// HTMLResult is the parsed output of a single-page generation.
type HTMLResult struct {
	HTML string
}

// MultiFileResult is the parsed output of a three-file site generation.
type MultiFileResult struct {
	HTML string
	CSS  string
	JS   string
}

// ErrEmptyMarkup is returned when a generation produced no usable text.
var ErrEmptyMarkup = errors.New("empty markup")

var (
	htmlFencePattern = regexp.MustCompile("(?s)```html\\s*\n(.*?)```")
	cssFencePattern  = regexp.MustCompile("(?s)```css\\s*\n(.*?)```")
	jsFencePattern   = regexp.MustCompile("(?s)```(?:js|javascript)\\s*\n(.*?)```")
)

// ParseHTML extracts the HTML document from generated markup. When no fenced
// block is present the whole text is treated as the document.
func ParseHTML(markup string) (*HTMLResult, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, ErrEmptyMarkup
	}
	if m := htmlFencePattern.FindStringSubmatch(markup); m != nil {
		return &HTMLResult{HTML: strings.TrimSpace(m[1])}, nil
	}
	return &HTMLResult{HTML: strings.TrimSpace(markup)}, nil
}

// ParseMultiFile extracts the html, css and js blocks from generated markup.
// The html block is required; css and js may be absent.
func ParseMultiFile(markup string) (*MultiFileResult, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, ErrEmptyMarkup
	}
	res := &MultiFileResult{}
	if m := htmlFencePattern.FindStringSubmatch(markup); m != nil {
		res.HTML = strings.TrimSpace(m[1])
	}
	if m := cssFencePattern.FindStringSubmatch(markup); m != nil {
		res.CSS = strings.TrimSpace(m[1])
	}
	if m := jsFencePattern.FindStringSubmatch(markup); m != nil {
		res.JS = strings.TrimSpace(m[1])
	}
	if res.HTML == "" {
		return nil, errors.New("no html block found in markup")
	}
	return res, nil
}
