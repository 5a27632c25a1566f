package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig controls scheduled purging of old cost records.
type RetentionConfig struct {
	// MaxAge is how long records are kept. Zero disables purging.
	MaxAge time.Duration

	// Schedule is a cron expression for when purges run.
	// Default: "@hourly"
	Schedule string
}

// DefaultRetentionConfig returns the default retention settings.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		MaxAge:   90 * 24 * time.Hour,
		Schedule: "@hourly",
	}
}

// Retention purges expired records from a Store on a cron schedule.
type Retention struct {
	store  Store
	config *RetentionConfig
	cron   *cron.Cron
	logger *slog.Logger
}

// NewRetention creates a retention scheduler for the store.
func NewRetention(store Store, config *RetentionConfig) (*Retention, error) {
	if config == nil {
		config = DefaultRetentionConfig()
	}
	if config.Schedule == "" {
		config.Schedule = "@hourly"
	}

	r := &Retention{
		store:  store,
		config: config,
		cron:   cron.New(),
		logger: slog.Default().With("component", "ledger.retention"),
	}

	if config.MaxAge > 0 {
		if _, err := r.cron.AddFunc(config.Schedule, r.purge); err != nil {
			return nil, &StorageError{Backend: "retention", Op: "schedule", Cause: err}
		}
	}

	return r, nil
}

// Start begins running scheduled purges.
func (r *Retention) Start() {
	if r.config.MaxAge <= 0 {
		r.logger.Info("cost record retention disabled")
		return
	}
	r.cron.Start()
	r.logger.Info("cost record retention started",
		"max_age", r.config.MaxAge.String(),
		"schedule", r.config.Schedule,
	)
}

// Stop halts scheduled purges and waits for a running purge to finish.
func (r *Retention) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *Retention) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-r.config.MaxAge)
	removed, err := r.store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		r.logger.Error("cost record purge failed", "error", err)
		return
	}

	if removed > 0 {
		r.logger.Info("purged expired cost records",
			"removed", removed,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
}
