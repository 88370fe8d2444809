package wordpress

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// RenderArticleHTML converts a generated markdown body to the HTML posted to
// the CMS: a lead paragraph with the excerpt, the rendered body, and a
// source-attribution footer.
func RenderArticleHTML(markdown, excerpt, sourceURL string) (string, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	esc := html.EscapeString
	out := fmt.Sprintf(`<div class="generated-article">
<p class="lead" style="font-size: 1.2em; color: #666; margin-bottom: 2em;">%s</p>

%s

<hr style="margin: 2em 0; border: none; border-top: 1px solid #eee;" />
<p style="color: #999; font-size: 0.9em;"><strong>Source:</strong> <a href="%s" target="_blank" rel="noopener noreferrer">%s</a></p>
</div>`, esc(excerpt), body.String(), esc(sourceURL), esc(sourceURL))
	return out, nil
}
