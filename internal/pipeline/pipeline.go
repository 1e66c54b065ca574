package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"contentproc/internal/apperrors"
	"contentproc/internal/cache"
	"contentproc/internal/core"
	"contentproc/internal/logger"
	"contentproc/internal/orchestrator"
	"contentproc/internal/questions"
	"contentproc/internal/vectorstore"
)

// ArticleStore is the persistence boundary the pipeline needs for
// articles; narrowed from vectorstore.Store-plus-relational-lookup
// since articles are looked up by URL for idempotence, which a plain
// vector store doesn't model — a real deployment backs this with
// Postgres rows, keyed the same way vectorstore.postgres.go keys
// documents.
type ArticleStore interface {
	GetByURL(ctx context.Context, url string) (*core.Article, error)
	Put(ctx context.Context, article core.Article) error
	PutSummary(ctx context.Context, summary core.Summary) error
	PutQAPairs(ctx context.Context, pairs []core.QAPair) error
	SetStatus(ctx context.Context, articleID, status string) error
}

// Orchestrator is C8: crawl -> extract -> persist -> fan-out
// summarize/questions -> fan-out embeddings -> persist -> invalidate
// cache. Grounded on the teacher's fetch-then-parse sequencing
// (internal/fetch/fetch.go) generalized into the spec's concurrent
// fan-out shape via golang.org/x/sync/errgroup, matching the
// structured-concurrency pattern used for concurrent fan-out in the
// example pack's retriever/search services.
type Orchestrator struct {
	httpClient   *http.Client
	articles     ArticleStore
	vectors      vectorstore.Store
	llm          *orchestrator.LLMOrchestrator
	embed        *orchestrator.EmbeddingOrchestrator
	questionGen  *questions.Generator
	cache        cache.Cache
	maxBodyBytes int64
	numQuestions int
}

func New(
	httpClient *http.Client,
	articles ArticleStore,
	vectors vectorstore.Store,
	llm *orchestrator.LLMOrchestrator,
	embed *orchestrator.EmbeddingOrchestrator,
	questionGen *questions.Generator,
	c cache.Cache,
) *Orchestrator {
	return &Orchestrator{
		httpClient: httpClient, articles: articles, vectors: vectors,
		llm: llm, embed: embed, questionGen: questionGen, cache: c,
		maxBodyBytes: defaultMaxBodyBytes, numQuestions: 5,
	}
}

// Process runs the full pipeline for a URL per §4.8.
func (o *Orchestrator) Process(ctx context.Context, targetURL string, forceRefresh bool) (*core.ProcessingResult, error) {
	start := time.Now()

	if !forceRefresh {
		if existing, err := o.articles.GetByURL(ctx, targetURL); err == nil && existing != nil {
			return o.cachedResult(existing, start), nil
		}
	}

	crawled, err := crawl(ctx, o.httpClient, targetURL, o.maxBodyBytes)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNetwork, "crawl failed", err)
	}

	urlSum := sha256.Sum256([]byte(targetURL))
	article := core.Article{
		ID:          hex.EncodeToString(urlSum[:]),
		URL:         targetURL,
		Title:       crawled.Title,
		CleanedText: crawled.Text,
		Language:    crawled.Language,
		WordCount:   wordCount(crawled.Text),
		Domain:      crawled.Domain,
		CrawledAt:   time.Now().UTC(),
		Status:      "ok",
	}
	if err := o.articles.Put(ctx, article); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "persist article failed", err)
	}

	summary, qaPairs, warnings, err := o.fanOut(ctx, article)
	if err != nil {
		return nil, err
	}

	_ = o.cache.DeletePattern(ctx, "questions:"+targetURL)
	_ = o.cache.DeletePattern(ctx, "similar:"+article.ID)

	result := &core.ProcessingResult{
		BlogURL: targetURL, BlogID: article.ID, Status: "success",
		Questions: qaPairs, ProcessingTimeMs: time.Since(start).Milliseconds(),
		Warnings: warnings,
	}
	if summary != nil {
		result.Summary = &core.SummaryResult{Summary: summary.Text, KeyPoints: summary.KeyPoints, Embedding: summary.Embedding.Vector}
	}
	return result, nil
}

// fanOut runs summarize and generate_questions in parallel, then — once
// both complete — embeds the summary text and every question+answer
// pair in parallel, per §4.8 step 4. A shared cancellation context
// means the first unrecoverable error cancels the remaining work.
func (o *Orchestrator) fanOut(ctx context.Context, article core.Article) (*core.Summary, []core.QAPair, []string, error) {
	g, gctx := errgroup.WithContext(ctx)

	var summaryText string
	var keyPoints []string
	var qaPairs []core.QAPair
	var qaErr error

	g.Go(func() error {
		var err error
		summaryText, keyPoints, err = summarizeArticle(gctx, o.llm, article.CleanedText, article.Title)
		return err
	})
	g.Go(func() error {
		pairs, err := o.questionGen.Generate(gctx, article.ID, article.CleanedText, article.Title, o.numQuestions, "")
		if err != nil {
			qaErr = err
			return nil // Q&A failure is recoverable per §4.8 partial-failure semantics
		}
		qaPairs = pairs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, nil, apperrors.Wrap(apperrors.CodeInternal, "summarize failed, aborting pipeline", err)
	}

	if qaErr != nil {
		_ = o.articles.SetStatus(ctx, article.ID, "failed_qa")
		logger.Warn("question generation failed", "article_id", article.ID, "error", qaErr.Error())
	}

	summary := &core.Summary{
		ID: uuid.NewString(), ArticleID: article.ID, Text: summaryText,
		KeyPoints: keyPoints, CreatedAt: time.Now().UTC(),
	}

	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		vec, err := o.embed.Embed(egctx, summaryText)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "summary embedding failed", err)
		}
		summary.Embedding = core.Embedding{Vector: vec, Normalized: true}
		return nil
	})

	embeddedPairs := make([]core.QAPair, len(qaPairs))
	copy(embeddedPairs, qaPairs)
	var collector warningCollector
	for i := range embeddedPairs {
		i := i
		eg.Go(func() error {
			text := fmt.Sprintf("%s %s", embeddedPairs[i].Question, embeddedPairs[i].Answer)
			vec, err := o.embed.Embed(egctx, text)
			if err != nil {
				collector.add(fmt.Sprintf("embedding failed for question %d: %v", embeddedPairs[i].OrderingIndex, err))
				return nil // partial failure: keep article+summary, report warning
			}
			embeddedPairs[i].Embedding = core.Embedding{Vector: vec, Normalized: true}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, nil, err
	}
	warnings := collector.warnings()

	if err := o.articles.PutSummary(ctx, *summary); err != nil {
		return nil, nil, nil, apperrors.Wrap(apperrors.CodeInternal, "persist summary failed", err)
	}
	for i := range embeddedPairs {
		embeddedPairs[i].ID = uuid.NewString()
	}
	if len(embeddedPairs) > 0 {
		if err := o.articles.PutQAPairs(ctx, embeddedPairs); err != nil {
			return nil, nil, nil, apperrors.Wrap(apperrors.CodeInternal, "persist questions failed", err)
		}
	}

	if _, err := o.vectors.Add(ctx, vectorstore.Document{
		ID: summary.ID, Content: summaryText, Embedding: summary.Embedding.Vector,
		Metadata: map[string]any{"article_id": article.ID, "domain": article.Domain, "kind": "summary"},
		CreatedAt: summary.CreatedAt,
	}); err != nil {
		warnings = append(warnings, fmt.Sprintf("vector index update failed: %v", err))
	}

	return summary, embeddedPairs, warnings, nil
}

func (o *Orchestrator) cachedResult(article *core.Article, start time.Time) *core.ProcessingResult {
	return &core.ProcessingResult{
		BlogURL: article.URL, BlogID: article.ID, Status: "success",
		Message: "served from idempotency cache", ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}

func wordCount(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

// warningCollector accumulates partial-failure warnings from concurrent
// goroutines without racing on a shared slice.
type warningCollector struct {
	mu sync.Mutex
	ws []string
}

func (c *warningCollector) add(w string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws = append(c.ws, w)
}

func (c *warningCollector) warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws
}
