package scrollstage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Snapshot queues a labeled capture of every reveal mask, written at the end
// of the current Update as PNG files under SnapshotDir.
func (c *Controller) Snapshot(label string) {
	if c.closed {
		return
	}
	c.snapshotQueue = append(c.snapshotQueue, label)
}

// flushSnapshots writes one PNG per live, non-degraded surface for every
// queued label. Failures are logged and the queue is cleared either way.
func (c *Controller) flushSnapshots() {
	if len(c.snapshotQueue) == 0 {
		return
	}
	defer func() { c.snapshotQueue = c.snapshotQueue[:0] }()

	if err := os.MkdirAll(c.SnapshotDir, 0o755); err != nil {
		c.logger.Error("snapshot mkdir", zap.String("dir", c.SnapshotDir), zap.Error(err))
		return
	}

	stamp := time.Now().Format("20060102_150405")
	for _, label := range c.snapshotQueue {
		safe := sanitizeLabel(label)
		c.EachReveal(func(h RevealHandle, s *RevealSurface, _ Rect) {
			if s.Degraded() {
				return
			}
			path := filepath.Join(c.SnapshotDir, fmt.Sprintf("%s_%s_%d.png", stamp, safe, h.index))
			if err := writeSurfacePNG(path, s); err != nil {
				c.logger.Error("snapshot", zap.Error(err))
				return
			}
			c.logger.Debug("snapshot written", zap.String("path", path),
				zap.Float64("sampled", s.SampledFraction()))
		})
	}
}

func writeSurfacePNG(path string, s *RevealSurface) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := s.WritePNG(f); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
