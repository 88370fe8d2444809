package markdown

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a Markdown file with optional YAML frontmatter. The post
// command reads title, excerpt, tags and status from the frontmatter.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// Title returns the frontmatter title, or empty when absent.
func (d Document) Title() string {
	s, _ := d.Frontmatter["title"].(string)
	return strings.TrimSpace(s)
}

// Excerpt returns the frontmatter excerpt, or empty when absent.
func (d Document) Excerpt() string {
	s, _ := d.Frontmatter["excerpt"].(string)
	return strings.TrimSpace(s)
}

// Status returns the frontmatter status, or empty when absent.
func (d Document) Status() string {
	s, _ := d.Frontmatter["status"].(string)
	return strings.TrimSpace(s)
}

// Tags returns frontmatter tags, accepting either a YAML list or a
// comma-separated string.
func (d Document) Tags() []string {
	switch v := d.Frontmatter["tags"].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		var out []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	return nil
}

// ParseFile reads a Markdown file from disk.
func ParseFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse extracts YAML frontmatter (between two "---" lines at the top) and
// the body.
func Parse(r io.Reader) (Document, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) {
		return Document{}, err
	}
	hasFM := string(peek) == "---"

	var fmBuf, bodyBuf strings.Builder
	if hasFM {
		if _, err := br.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
			return Document{}, err
		}
		for {
			line, err := br.ReadString('\n')
			if strings.TrimSpace(line) == "---" {
				break
			}
			fmBuf.WriteString(line)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return Document{}, err
			}
		}
	}
	for {
		line, err := br.ReadString('\n')
		bodyBuf.WriteString(line)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Document{}, err
		}
	}

	doc := Document{Frontmatter: map[string]any{}, Body: bodyBuf.String()}
	if hasFM {
		if err := yaml.Unmarshal([]byte(fmBuf.String()), &doc.Frontmatter); err != nil {
			return Document{}, err
		}
		if doc.Frontmatter == nil {
			doc.Frontmatter = map[string]any{}
		}
	}
	return doc, nil
}
