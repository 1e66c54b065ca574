package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"contentproc/internal/cache"
	"contentproc/internal/config"
	"contentproc/internal/embeddings"
	"contentproc/internal/httpapi"
	"contentproc/internal/llmprovider"
	"contentproc/internal/logger"
	"contentproc/internal/orchestrator"
	"contentproc/internal/pipeline"
	"contentproc/internal/questions"
	"contentproc/internal/search"
	"contentproc/internal/store"
	"contentproc/internal/vectorstore"
)

// newServeCmd builds the serve subcommand: the composition root that
// constructs every provider, breaker, store, and the HTTP router, then
// runs until an interrupt signal, grounded on cmd/handlers/serve.go's
// flag/RunE/signal-drain shape.
func newServeCmd() *cobra.Command {
	var port int
	var host string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP processing API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP bind port (default from config)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP bind host (default from config)")
	return cmd
}

func runServe(ctx context.Context, portFlag int, hostFlag string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.ConnectionString)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	articleStore := store.New(pool)
	if err := articleStore.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure relational schema: %w", err)
	}

	llmChain, err := buildLLMChain(cfg.LLM)
	if err != nil {
		return fmt.Errorf("build LLM providers: %w", err)
	}
	llmOrch := orchestrator.NewLLMOrchestrator(llmChain, cfg.LLM.RateLimitRPM)

	embedChain, err := buildEmbeddingChain(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("build embedding providers: %w", err)
	}
	embedOrch := orchestrator.NewEmbeddingOrchestrator(embedChain, cfg.LLM.RateLimitRPM)

	dimension := 0
	if len(embedChain) > 0 {
		dimension = embedChain[0].Dimension()
	}
	vectors := vectorstore.NewPostgresStore(pool)
	if dimension > 0 {
		if err := vectors.EnsureSchema(ctx, dimension); err != nil {
			return fmt.Errorf("ensure vector schema: %w", err)
		}
	}

	appCache, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("connect cache: %w", err)
	}

	questionGen := questions.New(llmOrch, cfg.LLM.DefaultModel)
	pipe := pipeline.New(&http.Client{Timeout: 30 * time.Second}, articleStore, vectors, llmOrch, embedOrch, questionGen, appCache)
	searchSvc := search.New(articleStore, vectors, embedOrch)

	host := cfg.Server.Host
	if hostFlag != "" {
		host = hostFlag
	}
	port := cfg.Server.Port
	if portFlag != 0 {
		port = portFlag
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	srv := httpapi.New(addr, httpapi.Dependencies{
		Pipeline:      pipe,
		Articles:      articleStore,
		QuestionStore: articleStore,
		Search:        searchSvc,
		QuestionGen:   questionGen,
		LLM:           llmOrch,
		Embed:         embedOrch,
		Cache:         appCache,
		CORS:          cfg.Server.CORS,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// buildLLMChain activates one provider per configured API key, in the
// order OpenAI, Anthropic, Gemini, with the configured default
// provider promoted to the front of the chain.
func buildLLMChain(cfg config.LLM) ([]llmprovider.Provider, error) {
	var chain []llmprovider.Provider
	add := func(kind llmprovider.Kind, apiKey string) error {
		if apiKey == "" {
			return nil
		}
		p, err := llmprovider.New(kind, apiKey, cfg.DefaultModel)
		if err != nil {
			return err
		}
		chain = append(chain, p)
		return nil
	}
	if err := add(llmprovider.KindOpenAI, cfg.OpenAIAPIKey); err != nil {
		return nil, err
	}
	if err := add(llmprovider.KindAnthropic, cfg.AnthropicAPIKey); err != nil {
		return nil, err
	}
	if err := add(llmprovider.KindGemini, cfg.GeminiAPIKey); err != nil {
		return nil, err
	}
	return reorderPrimary(chain, cfg.DefaultProvider), nil
}

func reorderPrimary(chain []llmprovider.Provider, primaryName string) []llmprovider.Provider {
	if primaryName == "" {
		return chain
	}
	for i, p := range chain {
		if p.Name() == primaryName {
			reordered := append([]llmprovider.Provider{p}, append(chain[:i], chain[i+1:]...)...)
			return reordered
		}
	}
	return chain
}

// buildEmbeddingChain mirrors buildLLMChain for the embedding
// capability; the Gemini embedding provider needs a genai.Client built
// up front since its constructor (unlike the LLM providers') takes a
// client rather than a bare API key.
func buildEmbeddingChain(ctx context.Context, cfg config.LLM) ([]embeddings.Provider, error) {
	var chain []embeddings.Provider
	if cfg.OpenAIAPIKey != "" {
		chain = append(chain, embeddings.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, 0, true))
	}
	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.GeminiAPIKey, Backend: genai.BackendGeminiAPI})
		if err != nil {
			return nil, fmt.Errorf("build gemini client: %w", err)
		}
		chain = append(chain, embeddings.NewGeminiProvider(client, "", 0, true))
	}
	if len(chain) == 0 {
		chain = append(chain, embeddings.NewHashProvider(1536))
	}
	return chain, nil
}

func buildCache(ctx context.Context, cfg config.Cache) (cache.Cache, error) {
	if !cfg.Enabled {
		return cache.DisabledCache{}, nil
	}
	client, err := cache.Connect(ctx, cfg.ConnectionURL, cfg.RetryAttempts, cfg.RetryInterval)
	if err != nil {
		return nil, err
	}
	return cache.NewRedisCache(client), nil
}
