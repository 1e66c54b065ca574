// Package search implements the search/indexing service (C9):
// get_questions_by_url, find_similar, and record_click, with
// publisher-domain scoping. The teacher's own internal/search package
// queried external web-search engines (DuckDuckGo/Google/SerpAPI) to
// discover new links for a digest — a concern this spec has no
// equivalent for (there is no "discover content" operation), so those
// provider files were dropped rather than adapted; see DESIGN.md. This
// package keeps the teacher's Provider-factory idiom in spirit (a
// closed set of named backends behind one interface) but the interface
// itself is rebuilt entirely around the spec's C9 contract.
package search

import (
	"context"
	"regexp"
	"strings"

	"contentproc/internal/apperrors"
	"contentproc/internal/core"
	"contentproc/internal/orchestrator"
	"contentproc/internal/vectorstore"
)

const summarySnippetLen = 150

// QuestionStore is the persistence boundary the service needs for
// QAPairs; satisfied by internal/store.Store.
type QuestionStore interface {
	GetQAPairsByArticleID(ctx context.Context, articleID string, limit int) ([]core.QAPair, error)
	GetQAPairByID(ctx context.Context, id string) (*core.QAPair, error)
	GetByID(ctx context.Context, id string) (*core.Article, error)
	RecordClick(ctx context.Context, id string) (int64, error)
}

// Service implements C9 over a QuestionStore and the summary vector
// index.
type Service struct {
	questions QuestionStore
	summaries vectorstore.Store
	embed     *orchestrator.EmbeddingOrchestrator
}

func New(questions QuestionStore, summaries vectorstore.Store, embed *orchestrator.EmbeddingOrchestrator) *Service {
	return &Service{questions: questions, summaries: summaries, embed: embed}
}

// GetQuestionsByURL fetches the QAPair list for an already-resolved
// article id, ordered by ordering_index ascending, truncated to limit.
// Resolving url -> article id is the caller's responsibility (the
// article store, not this service, owns that lookup).
func (s *Service) GetQuestionsByURL(ctx context.Context, articleID string, limit int) ([]core.QAPair, error) {
	return s.questions.GetQAPairsByArticleID(ctx, articleID, limit)
}

// FindSimilar resolves the QAPair, computes or reuses its text
// embedding, runs a nearest-neighbor search against summary
// embeddings, excludes the source article, and scopes by domain if
// supplied.
func (s *Service) FindSimilar(ctx context.Context, questionID string, limit int, domain string) ([]core.SimilarBlog, error) {
	qa, err := s.questions.GetQAPairByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	queryVec := qa.Embedding.Vector
	if len(queryVec) == 0 {
		vec, err := s.embed.Embed(ctx, qa.Question+" "+qa.Answer)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, "embed question for similarity search failed", err)
		}
		queryVec = vec
	}

	// Domain scoping is applied during rescoring below, not as a store
	// filter: the stored host is the full crawled hostname (www./other
	// subdomains included), and §4.9 requires matching any subdomain of
	// the requested domain, which an exact-equality filter can't express.
	results, err := s.summaries.SimilaritySearch(ctx, queryVec, limit+1, vectorstore.Filter{}, 0)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "similarity search failed", err)
	}

	var out []core.SimilarBlog
	for _, r := range results {
		articleID, _ := r.Document.Metadata["article_id"].(string)
		if articleID == qa.ArticleID {
			continue
		}
		if domain != "" {
			host, _ := r.Document.Metadata["domain"].(string)
			if !MatchesDomain(host, domain) {
				continue
			}
		}
		if len(out) >= limit {
			break
		}
		article, err := s.questions.GetByID(ctx, articleID)
		title, url := "", ""
		if err == nil && article != nil {
			title, url = article.Title, article.URL
		}
		out = append(out, core.SimilarBlog{
			ArticleID: articleID, Title: title, URL: url,
			SimilarityScore: r.Similarity, SummarySnippet: truncate(r.Document.Content, summarySnippetLen),
		})
	}
	return out, nil
}

// RecordClick increments the QAPair's click_count and sets
// last_clicked_at, returning the new count.
func (s *Service) RecordClick(ctx context.Context, questionID string) (int64, error) {
	return s.questions.RecordClick(ctx, questionID)
}

// domainPattern builds the case-insensitive "optional subdomain of
// domain, including www" matcher described in §4.9.
func domainPattern(domain string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(strings.ToLower(domain))
	return regexp.Compile(`(?i)^(?:[a-z0-9-]+\.)?` + escaped + `$`)
}

// MatchesDomain reports whether host belongs to the given publisher
// domain (including www and other subdomains).
func MatchesDomain(host, domain string) bool {
	pattern, err := domainPattern(domain)
	if err != nil {
		return false
	}
	return pattern.MatchString(strings.ToLower(host))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
