// Package questions implements the question generator (C7): a
// three-layer prompt over an LLM provider that produces ranked Q&A
// pairs, with a JSON repair pass and a degraded paragraph-snippet
// fallback. Grounded on the teacher's internal/narrative package (the
// same Sprintf-template-then-parse-JSON style and markdown-fence
// cleanup) generalized from cluster narratives to per-article
// question/answer pairs. Parse failures are not logged.
package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contentproc/internal/apperrors"
	"contentproc/internal/core"
	"contentproc/internal/llmprovider"
)

const maxArticleChars = 4000

// Generator produces QAPairs for an article via an LLM provider.
type Generator struct {
	generate func(ctx context.Context, req llmprovider.Request) (*llmprovider.Response, error)
	model    string
}

// Caller is the subset of the orchestrator the generator needs —
// narrowed so tests can supply a fake without standing up a full chain.
type Caller interface {
	Generate(ctx context.Context, req llmprovider.Request) (*llmprovider.Response, error)
}

func New(caller Caller, model string) *Generator {
	return &Generator{generate: caller.Generate, model: model}
}

type rawQAPair struct {
	Question      string  `json:"question"`
	Answer        string  `json:"answer"`
	KeywordAnchor string  `json:"keyword_anchor"`
	Probability   float64 `json:"probability"`
}

type rawQAResponse struct {
	Questions []rawQAPair `json:"questions"`
}

// Generate builds numQuestions QAPairs (best-effort — fewer than
// requested is acceptable, zero valid ones is a hard failure) for the
// given article text/title. customInstructions, if non-empty, replaces
// the default exploratory-question template in prompt layer (ii).
func (g *Generator) Generate(ctx context.Context, articleID, text, title string, numQuestions int, customInstructions string) ([]core.QAPair, error) {
	prompt := buildPrompt(text, title, numQuestions, customInstructions)

	resp, err := g.generate(ctx, llmprovider.Request{
		Model:       g.model,
		Messages:    []llmprovider.Message{{Role: llmprovider.RoleUser, Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   1500,
	})
	if err != nil {
		fallback := degradedFallback(articleID, text, numQuestions)
		if len(fallback) == 0 {
			return nil, apperrors.Wrap(apperrors.CodeValidation, "no valid question/answer pairs produced", err)
		}
		return fallback, nil
	}

	pairs, parseErr := parseAndValidate(articleID, resp.Content)
	if parseErr == nil && len(pairs) > 0 {
		return pairs, nil
	}

	// Single repair pass: extract the first JSON array/object substring
	// and retry.
	if repaired := extractJSONSubstring(resp.Content); repaired != "" {
		if pairs, parseErr = parseAndValidate(articleID, repaired); parseErr == nil && len(pairs) > 0 {
			return pairs, nil
		}
	}

	fallback := degradedFallback(articleID, text, numQuestions)
	if len(fallback) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "no valid question/answer pairs produced")
	}
	return fallback, nil
}

// buildPrompt assembles the three prompt layers: (i) immutable
// output-format contract, (ii) role/instructions (custom or default),
// (iii) an inline literal schema example.
func buildPrompt(text, title string, numQuestions int, customInstructions string) string {
	body := text
	if len([]rune(body)) > maxArticleChars {
		body = string([]rune(body)[:maxArticleChars])
	}

	instructions := customInstructions
	if instructions == "" {
		instructions = "Generate exploratory questions a curious reader would ask after reading this article — questions that probe implications, causes, and open threads, not just facts already stated."
	}

	return fmt.Sprintf(`Respond with ONLY a single JSON object matching this exact shape, no markdown fences, no commentary:
{"questions": [{"question": "string", "answer": "string", "keyword_anchor": "string", "probability": 0.0}]}

%s

Produce up to %d questions for the article titled %q. Each item's "probability" reflects your confidence a real reader would ask it, in [0,1]. "keyword_anchor" is the single word or short phrase in the article text the question anchors to.

Example: {"questions": [{"question": "Why did the team choose this approach?", "answer": "Because it reduced latency by half.", "keyword_anchor": "latency", "probability": 0.8}]}

Article:
---
%s
---`, instructions, numQuestions, title, body)
}

func parseAndValidate(articleID, raw string) ([]core.QAPair, error) {
	cleaned := cleanJSONResponse(raw)
	if cleaned == "" {
		return nil, apperrors.New(apperrors.CodeCorruptArtifact, "empty JSON response")
	}

	var parsed rawQAResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCorruptArtifact, "malformed question JSON", err)
	}

	var pairs []core.QAPair
	for i, q := range parsed.Questions {
		if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Answer) == "" {
			continue
		}
		if q.Probability < 0 || q.Probability > 1 {
			continue
		}
		pairs = append(pairs, core.QAPair{
			ArticleID:     articleID,
			Question:      q.Question,
			Answer:        q.Answer,
			KeywordAnchor: q.KeywordAnchor,
			Probability:   q.Probability,
			OrderingIndex: i,
		})
	}
	return pairs, nil
}

// degradedFallback derives a small question set from paragraph
// snippets when the LLM call or JSON parse fails entirely, per §4.7:
// confidence ≤ 0.3, Degraded=true.
func degradedFallback(articleID, text string, numQuestions int) []core.QAPair {
	paragraphs := strings.Split(text, "\n\n")
	var pairs []core.QAPair
	for i, p := range paragraphs {
		if len(pairs) >= numQuestions {
			break
		}
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		snippet := p
		if len([]rune(snippet)) > 150 {
			snippet = string([]rune(snippet)[:150])
		}
		pairs = append(pairs, core.QAPair{
			ArticleID:     articleID,
			Question:      "What does this section cover?",
			Answer:        snippet,
			Probability:   0.3,
			OrderingIndex: i,
			Degraded:      true,
		})
	}
	return pairs
}

// extractJSONSubstring returns the balanced {...} substring starting
// at the first '{' in s, or failing that the balanced [...] substring
// starting at the first '[', or "" if neither is found.
func extractJSONSubstring(s string) string {
	for _, open := range []byte{'{', '['} {
		close := byte('}')
		if open == '[' {
			close = ']'
		}
		start := strings.IndexByte(s, open)
		if start < 0 {
			continue
		}
		depth := 0
		for i := start; i < len(s); i++ {
			switch s[i] {
			case open:
				depth++
			case close:
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

// cleanJSONResponse strips markdown code-fence wrappers, grounded on
// the teacher's narrative.cleanJSONResponse.
func cleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}
