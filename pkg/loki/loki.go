package loki

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrorReporter receives internal pusher failures so they can be logged
// without going back through the pusher itself.
type ErrorReporter interface {
	Error(msg string, args ...any)
}

type Config struct {
	// URL of the Loki push endpoint, e.g. https://loki.example.com/loki/api/v1/push
	URL string `validate:"required"`

	// Labels attached to every pushed stream.
	Labels map[string]string

	// FlushSize is the batch size that triggers an immediate push.
	FlushSize int `validate:"gte=1"`

	// FlushInterval is the maximum time a batch may wait before being pushed.
	FlushInterval time.Duration `validate:"gte=1"`

	// Username and Password enable basic auth when both are set.
	Username string
	Password string
}

func (cfg *Config) applyDefaults() {
	if cfg.FlushSize == 0 {
		cfg.FlushSize = 500
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.Labels == nil {
		cfg.Labels = map[string]string{}
	}
}

type Entry struct {
	Level   string `json:"level"`
	Message string `json:"msg"`
	Caller  string `json:"caller,omitempty"`
}

type pushRequest struct {
	Streams []pushStream `json:"streams"`
}

type pushStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// Pusher batches log entries and ships them to Loki in the background.
type Pusher struct {
	cfg      Config
	client   *http.Client
	reporter ErrorReporter

	entries chan Entry
	done    chan struct{}
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(ctx context.Context, cfg Config, reporter ErrorReporter) (*Pusher, error) {

	cfg.applyDefaults()
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pusher{
		cfg:      cfg,
		client:   &http.Client{Timeout: 10 * time.Second},
		reporter: reporter,
		entries:  make(chan Entry, cfg.FlushSize),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	p.wg.Add(1)
	go p.loop()
	return p, nil
}

// Push enqueues one entry. It never blocks the caller for longer than a
// channel send and never returns a transport error.
func (p *Pusher) Push(e Entry) error {
	select {
	case p.entries <- e:
	case <-p.ctx.Done():
	}
	return nil
}

// Stop flushes the pending batch and shuts the pusher down.
func (p *Pusher) Stop() {
	close(p.done)
	p.wg.Wait()
	p.cancel()
}

func (p *Pusher) loop() {
	defer p.wg.Done()

	batch := make([][2]string, 0, p.cfg.FlushSize)
	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := p.send(batch); err != nil {
			p.reporter.Error("failed to push logs to loki", "error", err)
		}
		batch = batch[:0]
	}
	defer flush()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.done:
			return
		case e := <-p.entries:
			if line, ok := encode(e); ok {
				batch = append(batch, line)
			}
			if len(batch) >= p.cfg.FlushSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func encode(e Entry) ([2]string, bool) {
	data, err := json.Marshal(e)
	if err != nil {
		return [2]string{}, false
	}
	return [2]string{strconv.FormatInt(time.Now().UnixNano(), 10), string(data)}, true
}

func (p *Pusher) send(batch [][2]string) error {

	values := make([][2]string, len(batch))
	copy(values, batch)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(pushRequest{Streams: []pushStream{{
		Stream: p.cfg.Labels,
		Values: values,
	}}}); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(p.ctx, http.MethodPost, p.cfg.URL, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	if p.cfg.Username != "" && p.cfg.Password != "" {
		req.SetBasicAuth(p.cfg.Username, p.cfg.Password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("loki returned status %v", resp.StatusCode)
	}
	return nil
}
