package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/joblens/joblens/internal/domain/models"
	"github.com/joblens/joblens/internal/events"
	"github.com/joblens/joblens/internal/logger"
	"github.com/joblens/joblens/internal/metrics"
	"github.com/joblens/joblens/internal/repositories"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const maxRunErrors = 50

type postingRepository interface {
	Create(ctx context.Context, posting *models.JobPosting) error
	ExistsByURL(ctx context.Context, url string) (bool, error)
}

type runLogRepository interface {
	Create(ctx context.Context, source string) (*models.ScrapeLog, error)
	MarkRunning(ctx context.Context, id uint) error
	Finish(ctx context.Context, id uint, status models.RunStatus, totalScraped, processed int, errMsg string) error
}

type watermarkStore interface {
	Save(ctx context.Context, id string, data []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
}

type descriptionRewriter interface {
	Rewrite(ctx context.Context, raw string) string
}

type textEmbedder interface {
	Embed(ctx context.Context, text string) models.Vector
}

type duplicateFinder interface {
	FindDuplicates(ctx context.Context, title, company, description string) ([]models.DuplicateCandidate, error)
}

// RunResult reports one ingestion run. Per-posting failures are collected,
// they never abort the run.
type RunResult struct {
	Success      bool
	Processed    int
	TotalScraped int
	Errors       []string
}

// Pipeline fetches raw postings from the configured sources, rewrites and
// embeds them, drops duplicates and persists the rest. One run is audited by
// one ScrapeLog record.
type Pipeline struct {
	bus        EventBus.Bus
	sources    []Source
	rewriter   descriptionRewriter
	embedder   textEmbedder
	dedup      duplicateFinder
	postings   postingRepository
	runLogs    runLogRepository
	watermarks watermarkStore
	cache      *gocache.Cache
	maxPages   int
	interval   time.Duration

	runCompleteCallback func()
}

func NewPipeline(bus EventBus.Bus, rewriter descriptionRewriter, embedder textEmbedder,
	dedup duplicateFinder, postings postingRepository, runLogs runLogRepository,
	watermarks watermarkStore, sources []Source, maxPages int, interval time.Duration) (*Pipeline, error) {

	if len(sources) == 0 {
		return nil, errors.New("at least one source is required")
	}
	if maxPages < 1 {
		return nil, errors.New("max pages must be at least 1")
	}

	return &Pipeline{
		bus:        bus,
		sources:    sources,
		rewriter:   rewriter,
		embedder:   embedder,
		dedup:      dedup,
		postings:   postings,
		runLogs:    runLogs,
		watermarks: watermarks,
		cache:      gocache.New(30*time.Minute, time.Hour),
		maxPages:   maxPages,
		interval:   interval,
	}, nil
}

// WithRunCompleteCallback registers a hook invoked after every run.
func (p *Pipeline) WithRunCompleteCallback(callback func()) {
	p.runCompleteCallback = callback
}

// Run executes ingestion runs forever, stretching the interval when a run
// takes longer than the configured period.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		startTime := time.Now()
		log.Infof("running ingestion at %v", startTime)

		if _, err := p.RunOnce(ctx); err != nil {
			log.Errorf("ingestion run failed: %v", err)
		}

		executionTime := time.Since(startTime)
		metrics.IngestRunDuration.Observe(executionTime.Seconds())
		log.Infof("ingestion ended after %v", executionTime)

		if p.runCompleteCallback != nil {
			p.runCompleteCallback()
		}

		var sleepTime time.Duration
		if executionTime <= p.interval {
			sleepTime = p.interval - executionTime
		} else {
			p.interval = executionTime + time.Hour
			log.Infof("ingestion interval stretched to %v", p.interval)
		}

		log.Infof("next ingestion time is %v", time.Now().Add(sleepTime))
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleepTime):
		}
	}
}

// RunOnce performs a single ingestion run across all sources. A failure to
// create the audit record aborts the run; everything below it degrades to
// collected errors.
func (p *Pipeline) RunOnce(ctx context.Context) (*RunResult, error) {

	sourceNames := make([]string, len(p.sources))
	for i, source := range p.sources {
		sourceNames[i] = source.Name()
	}

	logRecord, err := p.runLogs.Create(ctx, strings.Join(sourceNames, ","))
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to create scrape log: %v", err)
		return nil, fmt.Errorf("failed to create scrape log: %w", err)
	}

	if err = p.runLogs.MarkRunning(ctx, logRecord.ID); err != nil {
		_ = p.runLogs.Finish(ctx, logRecord.ID, models.RunFailed, 0, 0, err.Error())
		return nil, fmt.Errorf("failed to mark run as running: %w", err)
	}

	result := &RunResult{Success: true}

	for _, source := range p.sources {
		if ctx.Err() != nil {
			break
		}
		p.ingestFromSource(ctx, source, result)
	}

	status := models.RunCompleted
	if err = ctx.Err(); err != nil {
		status = models.RunFailed
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
	}

	if err = p.runLogs.Finish(ctx, logRecord.ID, status, result.TotalScraped,
		result.Processed, strings.Join(result.Errors, "; ")); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to finish scrape log: %v", err)
	}

	p.bus.Publish(events.IngestRunCompletedTopic, events.IngestRunCompleted{
		RunID:        logRecord.ID,
		Processed:    result.Processed,
		TotalScraped: result.TotalScraped,
		Failed:       status == models.RunFailed,
	})

	log.Infof("ingestion run %v finished: scraped %v, processed %v, errors %v",
		logRecord.ID, result.TotalScraped, result.Processed, len(result.Errors))
	return result, nil
}

func (p *Pipeline) ingestFromSource(ctx context.Context, source Source, result *RunResult) {

	var latestPublished time.Time
	watermark := p.loadWatermark(ctx, source.Name())

	pageToken := ""
	for pageNum := 0; pageNum < p.maxPages; pageNum++ {

		rawPostings, nextToken, err := source.FetchPage(ctx, pageToken)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeSearchApi).
				Errorf("failed to fetch page from %v: %v", source.Name(), err)
			p.recordError(result, fmt.Sprintf("%v: page fetch abandoned: %v", source.Name(), err))
			break
		}

		if len(rawPostings) == 0 {
			break
		}
		result.TotalScraped += len(rawPostings)

		for _, raw := range rawPostings {
			if ctx.Err() != nil {
				return
			}

			if !raw.PublishedAt.IsZero() && raw.PublishedAt.After(latestPublished) {
				latestPublished = raw.PublishedAt
			}
			if !watermark.IsZero() && !raw.PublishedAt.IsZero() && !raw.PublishedAt.After(watermark) {
				metrics.SkippedPostingsCounter.WithLabelValues("watermark").Inc()
				continue
			}

			if err := p.processPosting(ctx, source.Name(), raw); err != nil {
				p.recordError(result, fmt.Sprintf("%v: %v", raw.URL, err))
			} else {
				result.Processed++
			}
		}

		if nextToken == "" {
			break
		}
		pageToken = nextToken
	}

	p.saveWatermark(ctx, source.Name(), latestPublished)
}

// processPosting runs the per-posting stages. Skips (already known, detected
// duplicate) return nil; only genuine failures surface as run errors.
func (p *Pipeline) processPosting(ctx context.Context, sourceName string, raw models.RawPosting) error {

	if err := validateRawPosting(raw); err != nil {
		metrics.SkippedPostingsCounter.WithLabelValues("invalid").Inc()
		return err
	}

	if _, found := p.cache.Get(raw.URL); found {
		metrics.SkippedPostingsCounter.WithLabelValues("cached").Inc()
		return nil
	}

	exists, err := p.postings.ExistsByURL(ctx, raw.URL)
	if err != nil {
		return fmt.Errorf("existence check failed: %w", err)
	}
	if exists {
		p.cacheURL(raw.URL)
		metrics.SkippedPostingsCounter.WithLabelValues("exists").Inc()
		return nil
	}

	start := time.Now()
	summary := p.rewriter.Rewrite(ctx, raw.Description)
	metrics.IngestStepDuration.WithLabelValues("rewrite").Observe(time.Since(start).Seconds())

	start = time.Now()
	embedding := p.embedder.Embed(ctx, raw.Title+" "+raw.Company+" "+summary)
	metrics.IngestStepDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())

	if embedding.IsEmpty() {
		metrics.SkippedPostingsCounter.WithLabelValues("empty_embedding").Inc()
		return fmt.Errorf("posting is not embeddable")
	}

	if p.dedup != nil {
		start = time.Now()
		candidates, err := p.dedup.FindDuplicates(ctx, raw.Title, raw.Company, summary)
		metrics.IngestStepDuration.WithLabelValues("dedup").Observe(time.Since(start).Seconds())

		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("duplicate check failed for %v, ingesting anyway: %v", raw.URL, err)
		} else if len(candidates) > 0 {
			p.cacheURL(raw.URL)
			metrics.SkippedPostingsCounter.WithLabelValues("duplicate").Inc()
			log.Infof("skipping %v as duplicate of posting %v (%v)",
				raw.URL, candidates[0].JobID, candidates[0].Reason)
			return nil
		}
	}

	posting := &models.JobPosting{
		URL:         raw.URL,
		Title:       raw.Title,
		Company:     raw.Company,
		Location:    raw.Location,
		Description: raw.Description,
		Summary:     summary,
		Embedding:   embedding,
		Source:      sourceName,
		Remote:      raw.Remote,
		Status:      models.PostingActive,
		PublishedAt: raw.PublishedAt,
		IngestedAt:  time.Now(),
	}

	start = time.Now()
	err = p.postings.Create(ctx, posting)
	metrics.IngestStepDuration.WithLabelValues("persist").Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateURL) {
			// Lost the race to a concurrent run; the unique index did its job.
			p.cacheURL(raw.URL)
			metrics.SkippedPostingsCounter.WithLabelValues("exists").Inc()
			return nil
		}
		return fmt.Errorf("failed to persist posting: %w", err)
	}

	p.cacheURL(raw.URL)
	metrics.IngestedPostingsCounter.Inc()
	p.bus.Publish(events.PostingIngestedTopic, events.PostingIngested{
		JobID:   posting.ID,
		URL:     posting.URL,
		Title:   posting.Title,
		Company: posting.Company,
		Source:  sourceName,
	})
	return nil
}

func validateRawPosting(raw models.RawPosting) error {

	if strings.TrimSpace(raw.URL) == "" {
		return errors.New("posting has no url")
	}
	parsed, err := url.Parse(raw.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("posting has malformed url %q", raw.URL)
	}
	if strings.TrimSpace(raw.Title) == "" {
		return errors.New("posting has no title")
	}
	return nil
}

func (p *Pipeline) cacheURL(url string) {
	if err := p.cache.Add(url, struct{}{}, gocache.DefaultExpiration); err != nil {
		log.Debugf("failed to cache posting url: %v", err)
	}
}

func (p *Pipeline) recordError(result *RunResult, message string) {
	if len(result.Errors) < maxRunErrors {
		result.Errors = append(result.Errors, message)
	}
}

func (p *Pipeline) loadWatermark(ctx context.Context, sourceName string) time.Time {

	data, err := p.watermarks.Load(ctx, watermarkKey(sourceName))
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to load watermark for %v: %v", sourceName, err)
		return time.Time{}
	}
	if data == nil {
		return time.Time{}
	}

	var watermark time.Time
	if err = json.Unmarshal(data, &watermark); err != nil {
		log.Errorf("failed to decode watermark for %v: %v", sourceName, err)
		return time.Time{}
	}
	return watermark
}

func (p *Pipeline) saveWatermark(ctx context.Context, sourceName string, watermark time.Time) {

	if watermark.IsZero() {
		return
	}

	data, err := json.Marshal(watermark)
	if err != nil {
		log.Errorf("failed to encode watermark for %v: %v", sourceName, err)
		return
	}
	if err = p.watermarks.Save(ctx, watermarkKey(sourceName), data); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to save watermark for %v: %v", sourceName, err)
	}
}

func watermarkKey(sourceName string) string {
	return "watermark:" + sourceName
}
