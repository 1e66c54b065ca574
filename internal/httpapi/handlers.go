package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"contentproc/internal/apperrors"
	"contentproc/internal/core"
	"contentproc/internal/llmprovider"
)

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, "malformed JSON body", err)
	}
	return nil
}

// clampInt returns v if it's within [min,max], else the nearest bound,
// and def if v is zero (unset).
func clampInt(v, def, min, max int) int {
	if v == 0 {
		v = def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// --- POST /processing/process, /processing/process-async ---

type processRequest struct {
	URL           string `json:"url"`
	NumQuestions  int    `json:"num_questions"`
	ForceRefresh  bool   `json:"force_refresh"`
}

func (h *Handlers) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.URL == "" {
		writeError(w, r, apperrors.New(apperrors.CodeValidation, "url is required"))
		return
	}
	req.NumQuestions = clampInt(req.NumQuestions, 5, 1, 20)

	result, err := h.pipeline.Process(r.Context(), req.URL, req.ForceRefresh)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleProcessAsync(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.URL == "" {
		writeError(w, r, apperrors.New(apperrors.CodeValidation, "url is required"))
		return
	}
	req.NumQuestions = clampInt(req.NumQuestions, 5, 1, 20)

	jobID := newJobID()
	go func() {
		ctx := contextWithoutCancel(r.Context())
		if _, err := h.pipeline.Process(ctx, req.URL, req.ForceRefresh); err != nil {
			h.jobs.fail(jobID, err)
			return
		}
		h.jobs.complete(jobID)
	}()
	h.jobs.create(jobID)

	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": jobID, "status": "accepted"})
}

// --- GET /questions/by-url ---

func (h *Handlers) handleQuestionsByURL(w http.ResponseWriter, r *http.Request) {
	blogURL := r.URL.Query().Get("blog_url")
	if blogURL == "" {
		writeError(w, r, apperrors.New(apperrors.CodeValidation, "blog_url is required"))
		return
	}
	limit := clampInt(atoiOrZero(r.URL.Query().Get("limit")), 10, 1, 100)

	article, err := h.articles.GetByURL(r.Context(), blogURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pairs, err := h.search.GetQuestionsByURL(r.Context(), article.ID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pairs)
}

// --- GET /questions/{id} ---

func (h *Handlers) handleQuestionByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pair, err := h.questionStore.GetQAPairByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// --- POST /search/similar ---

type similarRequest struct {
	QuestionID string `json:"question_id"`
	Limit      int    `json:"limit"`
	Domain     string `json:"domain,omitempty"`
}

func (h *Handlers) handleSearchSimilar(w http.ResponseWriter, r *http.Request) {
	var req similarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.QuestionID == "" {
		writeError(w, r, apperrors.New(apperrors.CodeValidation, "question_id is required"))
		return
	}
	req.Limit = clampInt(req.Limit, 3, 1, 10)

	qa, err := h.questionStore.GetQAPairByID(r.Context(), req.QuestionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	results, err := h.search.FindSimilar(r.Context(), req.QuestionID, req.Limit, req.Domain)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"question_id":   req.QuestionID,
		"question_text": qa.Question,
		"similar_blogs": results,
	})
}

// --- POST /qa/answer ---

type answerRequest struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
	MaxWords int    `json:"max_words"`
}

func (h *Handlers) handleQAAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Question == "" {
		writeError(w, r, apperrors.New(apperrors.CodeValidation, "question is required"))
		return
	}
	req.MaxWords = clampInt(req.MaxWords, 200, 10, 1000)

	prompt := "Answer the following question in at most " + strconv.Itoa(req.MaxWords) + " words.\n\nQuestion: " + req.Question
	if req.Context != "" {
		prompt += "\n\nContext:\n" + req.Context
	}

	resp, err := h.llm.Generate(r.Context(), llmprovider.Request{
		Messages:    []llmprovider.Message{{Role: llmprovider.RoleUser, Content: prompt}},
		Temperature: 0.3,
		MaxTokens:   int32(req.MaxWords) * 2,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	answer := capWords(resp.Content, req.MaxWords)
	writeJSON(w, http.StatusOK, map[string]any{
		"question":   req.Question,
		"answer":     answer,
		"word_count": wordCountOf(answer),
		"model":      resp.Model,
		"provider":   resp.Provider,
	})
}

// --- POST /generate/questions ---

type generateQuestionsRequest struct {
	Content      string `json:"content"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty,omitempty"`
}

func (h *Handlers) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var req generateQuestionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Content == "" {
		writeError(w, r, apperrors.New(apperrors.CodeValidation, "content is required"))
		return
	}
	req.NumQuestions = clampInt(req.NumQuestions, 5, 1, 20)

	pairs, err := h.questionGen.Generate(r.Context(), "ad-hoc", req.Content, "", req.NumQuestions, "")
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, map[string]any{
			"question":   p.Question,
			"answer":     p.Answer,
			"difficulty": difficultyFor(p, req.Difficulty),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// difficultyFor derives a difficulty label from a QAPair's relevance
// probability when the caller didn't pin one explicitly; QAPair has no
// native difficulty field, so this is a read-time projection rather
// than a stored value.
func difficultyFor(p core.QAPair, requested string) string {
	if requested != "" {
		return requested
	}
	switch {
	case p.Probability >= 0.7:
		return "easy"
	case p.Probability >= 0.4:
		return "medium"
	default:
		return "hard"
	}
}

// --- POST /embeddings/generate, /embeddings/generate-batch ---

type embedRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

func (h *Handlers) handleEmbedGenerate(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Text == "" {
		writeError(w, r, apperrors.New(apperrors.CodeValidation, "text is required"))
		return
	}
	vec, err := h.embed.Embed(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	model := req.Model
	if model == "" {
		model = h.embed.PrimaryModel()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"embedding":  vec,
		"model":      model,
		"dimensions": len(vec),
	})
}

type embedBatchRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model,omitempty"`
}

func (h *Handlers) handleEmbedGenerateBatch(w http.ResponseWriter, r *http.Request) {
	var req embedBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.Texts) == 0 || len(req.Texts) > 100 {
		writeError(w, r, apperrors.New(apperrors.CodeValidation, "texts must have between 1 and 100 entries"))
		return
	}
	vecs, err := h.embed.EmbedBatch(r.Context(), req.Texts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	model := req.Model
	if model == "" {
		model = h.embed.PrimaryModel()
	}
	dims := 0
	if len(vecs) > 0 {
		dims = len(vecs[0])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"embeddings":  vecs,
		"model":       model,
		"dimensions":  dims,
		"total_texts": len(req.Texts),
	})
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func capWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ")
}

func wordCountOf(s string) int {
	return len(strings.Fields(s))
}
