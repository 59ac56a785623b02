package services

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DuplicateCleaner runs the batch duplicate cleanup on a daily schedule.
type DuplicateCleaner struct {
	dedup *Deduplicator
	cron  *cron.Cron
}

func NewDuplicateCleaner(dedup *Deduplicator) (*DuplicateCleaner, error) {

	dc := &DuplicateCleaner{
		dedup: dedup,
		cron:  cron.New(),
	}

	_, err := dc.cron.AddFunc("0 3 * * *", dc.cleanupDuplicates)
	if err != nil {
		return nil, err
	}

	dc.cron.Start()
	log.Info("duplicate cleaner started")
	return dc, nil
}

func (dc *DuplicateCleaner) Stop() {
	dc.cron.Stop()
}

func (dc *DuplicateCleaner) cleanupDuplicates() {
	retired, err := dc.dedup.CleanupDuplicates(context.Background())
	if err != nil {
		log.Errorf("duplicate cleanup failed: %v", err)
	} else {
		log.Infof("duplicate cleanup finished, retired postings: %v", retired)
	}
}
