package ai

import (
	"strconv"
	"strings"

	"contentpilot/internal/model"
)

// ParseBlogResponse extracts the TITLE/EXCERPT/CONTENT/TAGS sections from a
// generated blog post. Missing sections stay empty; a SOURCE section, when
// present, is discarded (the pipeline tracks the source URL itself).
func ParseBlogResponse(resp string) model.GeneratedPost {
	var post model.GeneratedPost
	var section string
	var content strings.Builder

	for _, line := range strings.Split(resp, "\n") {
		upper := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(upper, "TITLE:"):
			section = "title"
			post.Title = afterColon(line)
		case strings.HasPrefix(upper, "EXCERPT:"):
			section = "excerpt"
			post.Excerpt = afterColon(line)
		case strings.HasPrefix(upper, "CONTENT:"):
			section = "content"
			content.WriteString(afterColon(line))
		case strings.HasPrefix(upper, "TAGS:"):
			section = "tags"
			post.Tags = append(post.Tags, splitTags(afterColon(line))...)
		case strings.HasPrefix(upper, "SOURCE:"):
			section = ""
		case strings.TrimSpace(line) != "":
			switch section {
			case "title":
				post.Title += " " + strings.TrimSpace(line)
			case "excerpt":
				post.Excerpt += " " + strings.TrimSpace(line)
			case "content":
				content.WriteString("\n")
				content.WriteString(line)
			case "tags":
				post.Tags = append(post.Tags, splitTags(line)...)
			}
		case section == "content":
			content.WriteString("\n")
		}
	}

	post.Title = strings.TrimSpace(post.Title)
	post.Excerpt = strings.TrimSpace(post.Excerpt)
	post.Content = strings.TrimSpace(content.String())
	return post
}

// ParseRankResponse parses a comma-separated list of 1-based article numbers
// into unique 0-based indices, dropping anything out of range.
func ParseRankResponse(resp string, count int) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, part := range strings.Split(strings.TrimSpace(resp), ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		i := n - 1
		if i < 0 || i >= count {
			continue
		}
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out
}

func afterColon(line string) string {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return ""
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		t = strings.Trim(t, "[]")
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
