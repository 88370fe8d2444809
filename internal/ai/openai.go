package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"contentpilot/internal/model"
)

// Generator defines the AI operations used by the pipelines.
type Generator interface {
	// GenerateBlogPost turns one feed item into a long-form post.
	GenerateBlogPost(ctx context.Context, item model.FeedItem) (model.GeneratedPost, error)
	// GenerateSocialPost writes a short social snippet for one feed item.
	GenerateSocialPost(ctx context.Context, item model.FeedItem) (string, error)
	// SuggestCategory picks one of the configured blog categories.
	SuggestCategory(ctx context.Context, title, excerpt string) (string, error)
	// RankArticles orders candidates by newsletter value and returns the top n.
	RankArticles(ctx context.Context, articles []model.PublishedArticle, n int) ([]model.PublishedArticle, error)
	// GenerateIntro writes a short digest introduction.
	GenerateIntro(ctx context.Context, articles []model.PublishedArticle) (string, error)
	// GeneratePracticeTask writes the weekly hands-on exercise block.
	GeneratePracticeTask(ctx context.Context, articles []model.PublishedArticle) (string, error)
}

// OpenAIClient implements Generator using the Chat Completions API.
type OpenAIClient struct {
	client     *openai.Client
	model      string
	siteName   string
	audience   string
	categories []string
}

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string // optional
	SiteName   string
	Audience   string
	Categories []string
}

func NewOpenAI(cfg Config) *OpenAIClient {
	var c *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		c = openai.NewClientWithConfig(cc)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}
	if cfg.Model == "" {
		panic("OpenAI model must be specified")
	}
	return &OpenAIClient{
		client:     c,
		model:      cfg.Model,
		siteName:   cfg.SiteName,
		audience:   cfg.Audience,
		categories: cfg.Categories,
	}
}

func (o *OpenAIClient) GenerateBlogPost(ctx context.Context, item model.FeedItem) (model.GeneratedPost, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`You are a tech content writer for %s, a blog for %s, with a strong focus on practical .NET development (including .NET 8/9/10), performance tuning, and real-world tips.

Your task is to write an engaging blog post based on this article:

Title: %s
Source: %s
URL: %s
Summary: %s

Guidelines:
1. Write a catchy, SEO-friendly title (different from the original)
2. Create an engaging 800-1200 word blog post
3. Add your own insights and analysis, especially how this relates to modern .NET development where relevant
4. Use clear headings and structure (H2/H3-style markdown headings)
5. Write in a professional but conversational tone
6. Include a brief excerpt (2-3 sentences)
7. Suggest 3-5 relevant tags

Format your response as:

TITLE:
[Your title here]

EXCERPT:
[2-3 sentence excerpt]

CONTENT:
[Your blog post content with markdown formatting]

TAGS:
[tag1, tag2, tag3]

SOURCE:
[Original article link]
`, o.siteName, o.audience, item.Title, item.Source, item.URL, item.Summary)

	out, err := o.create(ctx, "You are an expert tech content writer.", prompt, 0.7, 2000)
	if err != nil {
		slog.Error("openai: generate blog post error", "url", item.URL, "err", err)
		return model.GeneratedPost{}, err
	}
	post := ParseBlogResponse(out)
	if strings.TrimSpace(post.Title) == "" || strings.TrimSpace(post.Content) == "" {
		return model.GeneratedPost{}, fmt.Errorf("generate blog post: malformed response for %s", item.URL)
	}
	return post, nil
}

func (o *OpenAIClient) GenerateSocialPost(ctx context.Context, item model.FeedItem) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`Create a professional LinkedIn post about this article, framed for .NET developers where possible:

Title: %s
Source: %s
Summary: %s
URL: %s

Guidelines:
1. Keep it under 200 words
2. Start with a hook that grabs attention
3. Add your professional insight or opinion
4. Include 2-3 relevant hashtags (prioritize .NET / C# / ASP.NET / performance / cloud-related tags when appropriate)
5. End with the link to the original article
6. Professional but conversational tone

Write only the post text, nothing else.
`, item.Title, item.Source, item.Summary, item.URL)

	out, err := o.create(ctx, "You are a tech professional sharing insights on LinkedIn.", prompt, 0.7, 300)
	if err != nil {
		slog.Error("openai: generate social post error", "url", item.URL, "err", err)
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (o *OpenAIClient) SuggestCategory(ctx context.Context, title, excerpt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	fallback := o.categories[0]
	if len([]rune(excerpt)) > 300 {
		excerpt = string([]rune(excerpt)[:300])
	}
	prompt := fmt.Sprintf(`You are categorizing a technical blog post for a .NET development blog.

Article Title: %s
Content Preview: %s

Available Categories:
%s

Select the MOST appropriate single category. Respond with ONLY the category name, nothing else.`,
		title, excerpt, "- "+strings.Join(o.categories, "\n- "))

	out, err := o.create(ctx, "You are an expert at categorizing technical content.", prompt, 0.3, 50)
	if err != nil {
		slog.Error("openai: suggest category error", "err", err)
		return fallback, nil
	}
	category := strings.TrimSpace(out)
	for _, c := range o.categories {
		if strings.EqualFold(c, category) {
			return c, nil
		}
	}
	slog.Warn("openai: invalid category suggested, using default", "suggested", category, "default", fallback)
	return fallback, nil
}

func (o *OpenAIClient) RankArticles(ctx context.Context, articles []model.PublishedArticle, n int) ([]model.PublishedArticle, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	b := &strings.Builder{}
	for i, a := range articles {
		fmt.Fprintf(b, "[%d] %s\nSource: %s\nTags: %s\n\n", i+1, a.Title, a.SourceName, tagsOrNone(a.Tags))
	}
	prompt := fmt.Sprintf(`You are selecting the top %d most valuable articles for a weekly newsletter targeting software engineers, with a strong focus on .NET (including .NET 8/9/10), C#, and practical engineering tips.

Articles:
%s
Select the %d most valuable articles based on:
1. Relevance to .NET developers and software engineers
2. Actionable insights or learning value (tips, how-tos, concrete examples)
3. Diversity of topics (don't pick articles about the same thing)
4. Timeliness and importance (new .NET releases, tooling, notable changes)
5. Quality of source

Respond with ONLY the article numbers in order of priority, separated by commas.
Example: 3, 7, 1, 12, 5
`, n, b.String(), n)

	out, err := o.create(ctx, "You are an expert content curator for tech professionals.", prompt, 0.3, 100)
	if err != nil {
		slog.Error("openai: rank articles error", "err", err)
		return nil, err
	}
	indices := ParseRankResponse(out, len(articles))
	if len(indices) == 0 {
		return nil, fmt.Errorf("rank articles: no valid indices in %q", out)
	}
	selected := make([]model.PublishedArticle, 0, n)
	for _, i := range indices {
		selected = append(selected, articles[i])
		if len(selected) == n {
			break
		}
	}
	return selected, nil
}

func (o *OpenAIClient) GenerateIntro(ctx context.Context, articles []model.PublishedArticle) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`Write a brief, engaging introduction (2-3 sentences) for a weekly tech newsletter.

This week's top articles:
%s

Guidelines:
1. Welcome readers warmly
2. Tease the value they'll get this week
3. Keep it conversational and enthusiastic
4. 2-3 sentences max

Write only the introduction, nothing else.
`, titleLines(articles))

	out, err := o.create(ctx, "You are writing a tech newsletter introduction.", prompt, 0.8, 150)
	if err != nil {
		slog.Error("openai: generate intro error", "err", err)
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (o *OpenAIClient) GeneratePracticeTask(ctx context.Context, articles []model.PublishedArticle) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`You are a senior .NET engineer and mentor.

Using the themes from these articles:
%s

Create ONE simple but interesting weekly practice task for newsletter subscribers.

Guidelines:
1. Focus on .NET (preferably .NET 8/9/10) or general software design thinking that a .NET developer can apply.
2. The task should be solvable in 20-30 minutes.
3. Make it concrete (e.g., "Create a small console app that...", "Refactor an existing method to use...", "Write a small LINQ query that...").
4. Emphasize reasoning and design, not just syntax.
5. Do NOT include the solution, only the task description.

Write 3-6 sentences. Start with a short title like: "Weekly Practice: [short description]".
`, titleLines(articles))

	out, err := o.create(ctx, "You are a senior .NET mentor creating weekly practice tasks.", prompt, 0.8, 250)
	if err != nil {
		slog.Error("openai: generate practice task error", "err", err)
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (o *OpenAIClient) create(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 120*time.Second)
		defer cancel()
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func titleLines(articles []model.PublishedArticle) string {
	b := &strings.Builder{}
	for _, a := range articles {
		fmt.Fprintf(b, "- %s\n", a.Title)
	}
	return b.String()
}

func tagsOrNone(tags []string) string {
	if len(tags) == 0 {
		return "None"
	}
	return strings.Join(tags, ", ")
}
