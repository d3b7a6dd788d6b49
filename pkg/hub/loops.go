package hub

import (
	"context"
	"time"

	"github.com/deckhand-io/deckhand/pkg/metrics"
	"github.com/deckhand-io/deckhand/pkg/types"
)

// loop describes one periodic publisher. The three loops run on
// independent schedules and never affect each other: an error tick only
// stretches that loop's own next delay.
type loop struct {
	name     string
	interval time.Duration
	retry    time.Duration
	publish  func(ctx context.Context) error
}

// StartPublishing starts the three periodic publishing loops. Calling it
// while already running is a no-op, not a second set of loops.
func (h *Hub) StartPublishing() {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	if h.running {
		return
	}
	h.running = true
	h.stopCh = make(chan struct{})

	loops := []loop{
		{"system", h.cfg.SystemInterval, h.cfg.SystemRetry, h.publishSystemStatus},
		{"deployments", h.cfg.DeploymentInterval, h.cfg.DeploymentRetry, h.publishDeployments},
		{"containers", h.cfg.ContainerInterval, h.cfg.ContainerRetry, h.publishContainerStats},
	}
	for _, l := range loops {
		h.wg.Add(1)
		go h.runLoop(l, h.stopCh)
	}

	h.logger.Info().Msg("started real-time publishing")
}

// StopPublishing stops the periodic loops. Each loop exits within one
// tick interval; in-flight job-log streams are unaffected. Idempotent.
func (h *Hub) StopPublishing() {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	if !h.running {
		return
	}
	h.running = false
	close(h.stopCh)

	h.logger.Info().Msg("stopped real-time publishing")
}

// Publishing reports whether the periodic loops are running
func (h *Hub) Publishing() bool {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()
	return h.running
}

// runLoop drives one publisher on its schedule. A tick with zero
// connections still fires on time but skips the fetch and broadcast. A
// publish failure is contained: logged, counted, and followed by the
// loop's longer retry delay.
func (h *Hub) runLoop(l loop, stopCh <-chan struct{}) {
	defer h.wg.Done()

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			next := l.interval
			if h.ConnectionCount() > 0 {
				ctx, cancel := context.WithTimeout(context.Background(), l.interval)
				if err := l.publish(ctx); err != nil {
					h.logger.Error().Err(err).Str("loop", l.name).Msg("publish tick failed")
					metrics.PublishErrors.WithLabelValues(l.name).Inc()
					next = l.retry
				}
				cancel()
			}
			timer.Reset(next)
		case <-stopCh:
			return
		}
	}
}

func (h *Hub) publishSystemStatus(ctx context.Context) error {
	stats, err := h.source.SystemSnapshot(ctx)
	if err != nil {
		return err
	}
	h.broadcast(newEvent(types.EventSystemStatus, stats))
	return nil
}

// publishDeployments emits both the aggregate metrics and the recent-job
// listing from a single snapshot
func (h *Hub) publishDeployments(ctx context.Context) error {
	m, err := h.source.DeploymentSnapshot(ctx)
	if err != nil {
		return err
	}
	h.broadcast(newEvent(types.EventDeploymentMetric, m))
	h.broadcast(newEvent(types.EventRecentJobs, m.RecentJobs))
	return nil
}

func (h *Hub) publishContainerStats(ctx context.Context) error {
	containers, err := h.source.ContainerSnapshot(ctx)
	if err != nil {
		return err
	}
	h.broadcast(newEvent(types.EventContainerStats, containers))
	return nil
}
