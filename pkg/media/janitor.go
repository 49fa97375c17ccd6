package media

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ngx29/BotTelegram/pkg/logger"
)

// Janitor sweeps the workspace on a cron schedule.
type Janitor struct {
	ws       *Workspace
	schedule string
	maxAge   time.Duration
	maxFiles int
}

func NewJanitor(ws *Workspace, schedule string, maxAge time.Duration, maxFiles int) *Janitor {
	return &Janitor{
		ws:       ws,
		schedule: schedule,
		maxAge:   maxAge,
		maxFiles: maxFiles,
	}
}

// Run blocks until ctx is canceled, sweeping on the configured schedule.
// An in-flight sweep finishes before Run returns.
func (j *Janitor) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(j.schedule, j.sweep); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", j.schedule, err)
	}
	c.Start()
	logger.InfoCF("media", "Janitor started", map[string]interface{}{
		"schedule":  j.schedule,
		"max_age":   j.maxAge.String(),
		"max_files": j.maxFiles,
	})

	<-ctx.Done()
	<-c.Stop().Done()
	logger.InfoC("media", "Janitor stopped")
	return nil
}

func (j *Janitor) sweep() {
	removed, err := j.ws.Sweep(j.maxAge, j.maxFiles)
	if err != nil {
		logger.WarnCF("media", "Sweep failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		return
	}
	if removed > 0 {
		logger.InfoCF("media", "Swept stale artifacts", map[string]interface{}{
			"removed": removed,
		})
	}
}
