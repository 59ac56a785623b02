package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/asaskevich/EventBus"
	"github.com/joblens/joblens/internal/clients/gemini"
	"github.com/joblens/joblens/internal/clients/jsearch"
	"github.com/joblens/joblens/internal/config"
	"github.com/joblens/joblens/internal/events"
	"github.com/joblens/joblens/internal/logger"
	"github.com/joblens/joblens/internal/metrics"
	"github.com/joblens/joblens/internal/repositories"
	"github.com/joblens/joblens/internal/services"
	log "github.com/sirupsen/logrus"
)

func runIngestion(ctx context.Context, cfg *config.Config, aiClient *gemini.Client,
	dbContext *repositories.DbContext, bus EventBus.Bus) (*services.DuplicateCleaner, error) {

	postings := repositories.NewPostingsRepository(dbContext.DB)
	runLogs := repositories.NewScrapeLogsRepository(dbContext.DB)
	watermarks := repositories.NewDataRepository(dbContext.DB)

	searchClient := jsearch.NewClient(cfg.Ingest.SearchAPIHost, cfg.Ingest.SearchAPIKey)
	if cfg.Ingest.MaxRequestsPerSecond > 0 {
		searchClient.SetRateLimit(cfg.Ingest.MaxRequestsPerSecond)
	}

	var sources []services.Source
	for _, query := range cfg.Ingest.Queries {
		sources = append(sources,
			services.NewJSearchSource(searchClient, query, cfg.Ingest.Location, cfg.Ingest.PageSize))
	}

	rewriter := services.NewRewriter(aiClient, cfg.Ingest.RewriteFallbackMaxChars)
	embedder := services.NewEmbedder(aiClient, cfg.AI.EmbeddingDimension, cfg.AI.RetryBackoff)
	dedup := services.NewDeduplicator(postings, cfg.Match.DedupThreshold, cfg.Match.DedupWindowDays)

	cleaner, err := services.NewDuplicateCleaner(dedup)
	if err != nil {
		return nil, err
	}

	pipeline, err := services.NewPipeline(bus, rewriter, embedder, dedup, postings, runLogs,
		watermarks, sources, cfg.Ingest.MaxPagesPerQuery, cfg.Ingest.Interval)
	if err != nil {
		cleaner.Stop()
		return nil, err
	}
	go pipeline.Run(ctx)

	return cleaner, nil
}

func runMatching(ctx context.Context, cfg *config.Config, aiClient *gemini.Client,
	dbContext *repositories.DbContext, bus EventBus.Bus) error {

	profiles := repositories.NewProfilesRepository(dbContext.DB)
	postings := repositories.NewPostingsRepository(dbContext.DB)
	matches := repositories.NewMatchesRepository(dbContext.DB)

	matcher := services.NewMatcher(bus, aiClient, profiles, postings, matches)
	criteria := services.DefaultCriteria(cfg.Match)

	return bus.Subscribe(events.IngestRunCompletedTopic, func(event events.IngestRunCompleted) {
		if event.Failed {
			return
		}
		if _, err := matcher.BatchMatchAllUsers(ctx, criteria); err != nil {
			log.Errorf("batch matching failed: %v", err)
		}
	})
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(cfg.MetricsAddress)

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	if err = dbContext.Migrate(); err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	aiClient, err := gemini.NewClient(ctx, cfg.AI.APIKey, cfg.AI.TextModel, cfg.AI.EmbeddingModel)
	if err != nil {
		log.Fatalf("can't create AI client: %v", err)
	}
	defer aiClient.Close()

	if cfg.AI.MaxRequestsPerMinute > 0 {
		aiClient.SetMinuteRateLimit(cfg.AI.MaxRequestsPerMinute)
	}
	if cfg.AI.MaxRequestsPerDay > 0 {
		aiClient.SetDayRateLimit(cfg.AI.MaxRequestsPerDay)
	}

	bus := EventBus.New()

	if err = runMatching(ctx, cfg, aiClient, dbContext, bus); err != nil {
		log.Fatalf("can't start matching: %v", err)
	}

	cleaner, err := runIngestion(ctx, cfg, aiClient, dbContext, bus)
	if err != nil {
		log.Fatalf("can't start ingestion: %v", err)
	}
	defer cleaner.Stop()

	<-ctx.Done()

	log.Info("Shutting down services...")
}
