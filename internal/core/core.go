// Package core defines the plain data entities shared across the
// content-processing pipeline: Article, Summary, QAPair, and the
// runtime-only provider/circuit-breaker/cache records. Entities carry
// no behavior beyond simple invariants — components own their logic.
package core

import "time"

// Article is a crawled web document, identified by a stable hash of its
// canonical URL. Immutable in text once stored except via explicit
// reindex; destroyed only by admin delete, which cascades to its
// Summary, QAPairs, and embeddings.
type Article struct {
	ID          string    `json:"id"`           // stable hash of the canonical URL
	URL         string    `json:"url"`          // canonical source URL
	Title       string    `json:"title"`        // extracted page title
	CleanedText string    `json:"cleaned_text"` // preprocessed body text
	Language    string    `json:"language"`     // BCP-47-ish language tag, defaults to "en"
	WordCount   int       `json:"word_count"`   // word count of CleanedText
	Domain      string    `json:"domain"`       // source host, lowercased
	CrawledAt   time.Time `json:"crawled_at"`   // when the crawl completed
	Status      string    `json:"status"`       // "ok" | "failed_qa" — see ProcessingResult
}

// Summary is one-to-one with an Article. `len(Embedding) ==
// provider.embedding_dimension` at creation time; dimension is fixed per
// index and rejected on mismatch.
type Summary struct {
	ID          string    `json:"id"`
	ArticleID   string    `json:"article_id"`
	Text        string    `json:"summary_text"`
	KeyPoints   []string  `json:"key_points"`   // 3-5 bullet points
	Title       string    `json:"title"`        // optional LLM-generated title
	Embedding   Embedding `json:"embedding"`
	ModelUsed   string    `json:"model_used"`   // embedding model identifier
	CreatedAt   time.Time `json:"created_at"`
}

// QAPair is many-to-one with an Article. Both Question and Answer must
// be non-empty; OrderingIndex is unique within an article; the
// embedding dimension must match the index dimension.
type QAPair struct {
	ID            string    `json:"id"`
	ArticleID     string    `json:"article_id"`
	Question      string    `json:"question"`       // inline emphasis markers preserved as opaque content
	Answer        string    `json:"answer"`
	KeywordAnchor string    `json:"keyword_anchor"` // optional
	Probability   float64   `json:"probability"`    // in [0,1]
	OrderingIndex int       `json:"ordering_index"` // unique within an article
	Embedding     Embedding `json:"embedding"`
	ClickCount    int64     `json:"click_count"`     // monotonically non-decreasing
	LastClickedAt time.Time `json:"last_clicked_at"` // zero value if never clicked
	Degraded      bool      `json:"degraded"`        // true if produced by the fallback generator
}

// Embedding is a fixed-dimension real-valued vector attached to a
// Summary or QAPair. Stored normalized to unit L2 length iff the owning
// index contract is cosine; otherwise stored raw with Normalized=false.
type Embedding struct {
	Vector     []float64 `json:"vector"`
	Model      string    `json:"model"`
	Normalized bool      `json:"normalized"`
}

// Dimension reports the vector length, or 0 for an empty embedding.
func (e Embedding) Dimension() int {
	return len(e.Vector)
}

// ProcessingResult is the wire-level response of the pipeline orchestrator.
type ProcessingResult struct {
	BlogURL          string         `json:"blog_url"`
	BlogID           string         `json:"blog_id"`
	Status           string         `json:"status"` // "success" | "failed"
	Summary          *SummaryResult `json:"summary,omitempty"`
	Questions        []QAPair       `json:"questions"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	Message          string         `json:"message"`
	Warnings         []string       `json:"warnings,omitempty"` // non-fatal partial-failure notes
}

// SummaryResult is the summary projection embedded in ProcessingResult.
type SummaryResult struct {
	Summary   string    `json:"summary"`
	KeyPoints []string  `json:"key_points"`
	Embedding []float64 `json:"embedding,omitempty"`
}

// SimilarBlog is one ranked result of a similarity search.
type SimilarBlog struct {
	ArticleID      string  `json:"article_id"`
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	SimilarityScore float64 `json:"similarity_score"`
	SummarySnippet string  `json:"summary_snippet"` // truncated to 150 chars
}
