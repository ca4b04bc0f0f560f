package scrollstage

import (
	"time"

	"go.uber.org/zap"
)

// updateStats holds per-update counters. Only logged in debug mode.
type updateStats struct {
	updateTime     time.Duration
	regions        int
	progressEvents int
	stepEvents     int
}

// debugLog writes the update's stats at debug level.
func (c *Controller) debugLog(stats updateStats) {
	if !c.debug {
		return
	}
	c.logger.Debug("update",
		zap.Duration("elapsed", stats.updateTime),
		zap.Int("regions", stats.regions),
		zap.Int("progressEvents", stats.progressEvents),
		zap.Int("stepEvents", stats.stepEvents),
		zap.Float64("scrollY", c.scrollY),
		zap.Bool("revealed", c.coordinator.Revealed()),
	)
}
