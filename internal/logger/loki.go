package logger

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/joblens/joblens/internal/config"
	"github.com/joblens/joblens/pkg/loki"
	log "github.com/sirupsen/logrus"
)

var lokiPusher *loki.Pusher

type logrusReporter struct{}

func (logrusReporter) Error(msg string, args ...any) {
	log.WithFields(log.Fields{"args": args, "source": "loki"}).Error(msg)
}

type lokiHook struct {
	pusher   *loki.Pusher
	minLevel log.Level
}

func (h *lokiHook) Fire(entry *log.Entry) error {

	if entry.Data["source"] == "loki" {
		return nil
	}

	caller := ""
	if entry.Caller != nil {
		caller = filepath.Base(entry.Caller.Function) + ":" + strconv.Itoa(entry.Caller.Line)
	}

	return h.pusher.Push(loki.Entry{
		Level:   entry.Level.String(),
		Message: entry.Message,
		Caller:  caller,
	})
}

func (h *lokiHook) Levels() []log.Level {
	var levels []log.Level
	for _, level := range log.AllLevels {
		if level <= h.minLevel {
			levels = append(levels, level)
		}
	}
	return levels
}

func addLokiHook(ctx context.Context, cfg config.LoggerConfig) error {

	pusher, err := loki.New(ctx, loki.Config{
		URL:      cfg.LokiURL,
		Username: cfg.LokiUser,
		Password: cfg.LokiPassword,
		Labels:   map[string]string{"app": cfg.AppName},
	}, logrusReporter{})
	if err != nil {
		return err
	}

	lokiPusher = pusher
	log.AddHook(&lokiHook{pusher: pusher, minLevel: log.InfoLevel})
	log.Info("Loki logging enabled")
	return nil
}
