// Package markdown renders user-submitted markup to HTML that is safe
// to embed in metadata pages. The rest of the application treats this
// as a pure string -> string collaborator.
package markdown

import (
	"bytes"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	initOnce sync.Once
	engine   goldmark.Markdown
	policy   *bluemonday.Policy
)

func setup() {
	// Inline HTML is passed through by the renderer and then sanitized,
	// mirroring how editors expect pasted <b>/<i> fragments to survive.
	engine = goldmark.New(goldmark.WithRendererOptions(html.WithUnsafe()))
	policy = bluemonday.UGCPolicy()
}

// Render converts markup to sanitized HTML. Scripts, event handlers
// and other active content are stripped; standard formatting tags are
// preserved. Rendering never fails: on a renderer error the input is
// treated as plain text and only sanitized.
func Render(src string) string {
	initOnce.Do(setup)

	var buf bytes.Buffer
	if err := engine.Convert([]byte(src), &buf); err != nil {
		return strings.TrimSpace(policy.Sanitize(src))
	}
	return strings.TrimSpace(policy.Sanitize(buf.String()))
}
