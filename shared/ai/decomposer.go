package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"study-planner/internal/models"
	"study-planner/shared/config"

	"google.golang.org/genai"
)

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Cache stores raw decomposition results keyed by topic.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// Decomposer asks the model to break a topic into subtopics with an
// importance level each.
type Decomposer struct {
	generator Generator
	cache     Cache
}

func NewDecomposer(cfg *config.AIConfig, cache Cache) (*Decomposer, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return NewDecomposerWithGenerator(&geminiGenerator{client: client, model: cfg.Model}, cache), nil
}

func NewDecomposerWithGenerator(generator Generator, cache Cache) *Decomposer {
	return &Decomposer{
		generator: generator,
		cache:     cache,
	}
}

func (d *Decomposer) Decompose(ctx context.Context, topic string) ([]models.Subtopic, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", models.ErrDecompositionFailure)
	}

	key := "subtopics:" + strings.ToLower(topic)
	if d.cache != nil {
		if raw, ok := d.cache.Get(ctx, key); ok {
			var subtopics []models.Subtopic
			if err := json.Unmarshal(raw, &subtopics); err == nil && len(subtopics) > 0 {
				log.Printf("Using cached subtopics for %q", topic)
				return subtopics, nil
			}
		}
	}

	text, err := d.generator.Generate(ctx, buildDecompositionPrompt(topic))
	if err != nil {
		return nil, fmt.Errorf("%w: Gemini API error: %v", models.ErrDecompositionFailure, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty response from Gemini", models.ErrDecompositionFailure)
	}

	subtopics, err := parseSubtopics(text)
	if err != nil {
		log.Printf("Raw Gemini response: %s", truncateString(text, 500))
		return nil, fmt.Errorf("%w: %v", models.ErrDecompositionFailure, err)
	}

	if d.cache != nil {
		if raw, err := json.Marshal(subtopics); err == nil {
			d.cache.Set(ctx, key, raw)
		}
	}

	return subtopics, nil
}

func buildDecompositionPrompt(topic string) string {
	return fmt.Sprintf(`You are a study planning assistant. Break down the topic '%s' into the most important subtopics a student must understand. Classify them as high, medium, or low importance.

Return ONLY a JSON array in this format:
[
  { "subtopic": "ER Model", "importance": "high" },
  { "subtopic": "Normalization", "importance": "medium" }
]`, topic)
}

var fencedBlockRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parseSubtopics accepts the bare JSON array, the first fenced code block, or
// the outermost [...] span of the response, in that order.
func parseSubtopics(text string) ([]models.Subtopic, error) {
	text = strings.TrimSpace(text)

	candidates := []string{text}
	if m := fencedBlockRE.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start != -1 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	var lastErr error
	for _, candidate := range candidates {
		var raw []models.Subtopic
		if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
			lastErr = err
			continue
		}

		subtopics := make([]models.Subtopic, 0, len(raw))
		for _, s := range raw {
			s.Name = strings.TrimSpace(s.Name)
			if s.Name == "" {
				continue
			}
			subtopics = append(subtopics, s)
		}
		if len(subtopics) == 0 {
			return nil, fmt.Errorf("response contained no subtopics")
		}
		return subtopics, nil
	}

	return nil, fmt.Errorf("could not parse Gemini response as JSON: %w", lastErr)
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
