package clipper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/PuerkitoBio/goquery"

	"flavor-vault/internal/llm"
	"flavor-vault/internal/metrics"
	"flavor-vault/internal/recipe"
)

//go:embed extractor_prompt.md
var extractorPrompt string

var extractorTemplate = template.Must(template.New("extractor").Parse(extractorPrompt))

// maxPromptContent bounds the page text sent to the model.
const maxPromptContent = 20000

// ErrNoRecipe is returned when a page holds no recognizable recipe.
var ErrNoRecipe = errors.New("no recipe found on page")

// Saver persists an imported recipe and returns the stored version.
type Saver interface {
	Add(ctx context.Context, r recipe.Recipe) (recipe.Recipe, error)
}

// Clipper imports recipes from web pages.
type Clipper struct {
	httpClient *http.Client
	saver      Saver
	textGen    llm.TextGenerator
	recorder   metrics.Recorder
}

// NewClipper creates a new Clipper instance. textGen and rec may be nil;
// without textGen only pages carrying schema.org JSON-LD can be imported.
func NewClipper(saver Saver, textGen llm.TextGenerator, rec metrics.Recorder) *Clipper {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		saver:      saver,
		textGen:    textGen,
		recorder:   rec,
	}
}

// ClipURL extracts the recipe at url and saves it as a user recipe.
func (c *Clipper) ClipURL(ctx context.Context, url string) (recipe.Recipe, error) {
	r, err := c.Extract(ctx, url)
	if err != nil {
		return recipe.Recipe{}, err
	}

	saved, err := c.saver.Add(ctx, r)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to save imported recipe: %w", err)
	}
	return saved, nil
}

// Extract fetches url and returns the recipe it describes. Structured
// JSON-LD data is preferred; the LLM is only asked when there is none.
func (c *Clipper) Extract(ctx context.Context, url string) (recipe.Recipe, error) {
	start := time.Now()
	doc, err := c.fetch(ctx, url)
	if err != nil {
		metrics.Observe(ctx, c.recorder, metrics.SourceWeb, "import", start, 0, true)
		return recipe.Recipe{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	r, ok := findJSONLDRecipe(doc)
	metrics.Observe(ctx, c.recorder, metrics.SourceWeb, "import", start, boolToInt(ok), false)
	if !ok {
		if c.textGen == nil {
			return recipe.Recipe{}, ErrNoRecipe
		}
		r, err = c.extractWithLLM(ctx, url, doc)
		if err != nil {
			return recipe.Recipe{}, err
		}
	}

	if r.Name == "" {
		r.Name = pageTitle(doc)
	}
	if r.Thumbnail == "" {
		r.Thumbnail, _ = doc.Find(`meta[property="og:image"]`).Attr("content")
	}
	if r.Name == "" || len(r.Ingredients) == 0 {
		return recipe.Recipe{}, ErrNoRecipe
	}
	r.Source = url
	return recipe.Normalize(r), nil
}

type promptData struct {
	URL     string
	Title   string
	Content string
}

func (c *Clipper) extractWithLLM(ctx context.Context, url string, doc *goquery.Document) (recipe.Recipe, error) {
	start := time.Now()

	content := cleanText(doc)
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent]
	}

	var buf bytes.Buffer
	if err := extractorTemplate.Execute(&buf, promptData{URL: url, Title: pageTitle(doc), Content: content}); err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to build extractor prompt: %w", err)
	}

	resp, err := c.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		c.observeLLM(ctx, start, resp.Usage, false)
		return recipe.Recipe{}, fmt.Errorf("ai extraction failed: %w", err)
	}

	raw, err := llm.ExtractJSON(resp.Content)
	if err != nil {
		c.observeLLM(ctx, start, resp.Usage, false)
		return recipe.Recipe{}, fmt.Errorf("failed to parse AI response: %w", err)
	}

	var r recipe.Recipe
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		c.observeLLM(ctx, start, resp.Usage, false)
		return recipe.Recipe{}, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, raw)
	}
	c.observeLLM(ctx, start, resp.Usage, true)
	return r, nil
}

func (c *Clipper) observeLLM(ctx context.Context, start time.Time, usage llm.TokenUsage, ok bool) {
	m := metrics.FetchMetric{
		Operation:        "import",
		Source:           metrics.SourceGemini,
		Results:          boolToInt(ok),
		Failed:           !ok,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        time.Since(start).Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}
	if err := c.recorder.Record(ctx, m); err != nil {
		log.Printf("Warning: failed to record import metric: %v", err)
	}
}

func (c *Clipper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "flavor-vault/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

// cleanText returns the visible body text without scripts and page chrome.
func cleanText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	// Remove noise to save LLM tokens
	body.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Remove()
	return strings.Join(strings.Fields(body.Text()), " ")
}

func pageTitle(doc *goquery.Document) string {
	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
