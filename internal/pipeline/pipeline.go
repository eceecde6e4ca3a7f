package pipeline

/*
certfisk — phishing domain detection over Certificate Transparency streams
Copyright (C) 2026  certfisk authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"

	"github.com/certfisk/certfisk/internal/certstream"
	"github.com/certfisk/certfisk/internal/metrics"
	"github.com/certfisk/certfisk/internal/scoring"
)

// Reporter consumes finished scoring reports.
type Reporter interface {
	Report(rep scoring.Report)
}

// Stats tracks pipeline counters. All fields are updated atomically.
type Stats struct {
	Messages        atomic.Int64
	Heartbeats      atomic.Int64
	CertUpdates     atomic.Int64
	SkippedMessages atomic.Int64
	DomainsSeen     atomic.Int64
	DomainsScored   atomic.Int64
	Alerts          atomic.Int64
	StartTime       time.Time
}

// StatsSnapshot is a point-in-time copy of pipeline counters.
type StatsSnapshot struct {
	Messages        int64
	Heartbeats      int64
	CertUpdates     int64
	SkippedMessages int64
	DomainsSeen     int64
	DomainsScored   int64
	Alerts          int64
	Elapsed         time.Duration
}

// Pipeline connects a certstream message channel to the scoring engine and
// fans scoring out over the sharded worker pool.
type Pipeline struct {
	engine    *scoring.Engine
	reporter  Reporter
	scheduler *Scheduler
	stats     Stats
	log       *logrus.Entry
}

// New builds a pipeline around an already-running scheduler.
func New(engine *scoring.Engine, reporter Reporter, scheduler *Scheduler) *Pipeline {
	p := &Pipeline{
		engine:    engine,
		reporter:  reporter,
		scheduler: scheduler,
		log:       logrus.WithField("component", "pipeline"),
	}
	p.stats.StartTime = time.Now()
	return p
}

// Run consumes messages until the channel closes or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, messages <-chan *certstream.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			p.HandleMessage(ctx, msg)
		}
	}
}

// HandleMessage dispatches every unique domain in one certificate update to
// the scoring workers. Heartbeats and unknown message types are counted and
// dropped.
func (p *Pipeline) HandleMessage(ctx context.Context, msg *certstream.Message) {
	p.stats.Messages.Add(1)

	switch msg.Kind() {
	case certstream.KindHeartbeat:
		p.stats.Heartbeats.Add(1)
		return
	case certstream.KindCertificateUpdate:
		p.stats.CertUpdates.Add(1)
	default:
		p.stats.SkippedMessages.Add(1)
		return
	}

	// Certificates routinely carry the same name twice (apex plus wildcard
	// expansion); score each distinct name once per message.
	seen := make(map[uint64]struct{}, len(msg.Domains()))
	for _, rawDomain := range msg.Domains() {
		if rawDomain == "" {
			continue
		}
		key := xxh3.HashString(rawDomain)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		p.stats.DomainsSeen.Add(1)

		p.submitWithRetry(ctx, rawDomain)
	}
}

// submitWithRetry retries transient rejections (queue backpressure) a bounded
// number of times before dropping the domain.
func (p *Pipeline) submitWithRetry(ctx context.Context, rawDomain string) {
	for attempt := 0; attempt <= MaxSubmitRetries; attempt++ {
		err := p.scheduler.Submit(ctx, rawDomain, p.scoreDomain)
		if err == nil {
			return
		}
		if !IsRetryable(err) || attempt == MaxSubmitRetries {
			p.log.WithError(err).Debugf("Dropping domain %q", rawDomain)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(SubmitRetryDelay):
		}
	}
}

// scoreDomain is the worker callback: score one domain and report the result.
func (p *Pipeline) scoreDomain(item *WorkItem) error {
	start := time.Now()
	rep := p.engine.Score(item.RawDomain)
	p.stats.DomainsScored.Add(1)

	if metrics.IsMetricsEnabled() {
		m := metrics.GetMetrics()
		m.DomainsScoredTotal.Inc()
		m.ScoreDistribution.Observe(float64(rep.Score))
		m.ScoringDuration.Observe(time.Since(start).Seconds())
	}

	if rep.Score >= scoring.AlertThreshold {
		p.stats.Alerts.Add(1)
	}
	p.reporter.Report(rep)
	return nil
}

// Wait blocks until all in-flight scoring work finishes.
func (p *Pipeline) Wait() {
	p.scheduler.Wait()
}

// Shutdown stops the underlying scheduler.
func (p *Pipeline) Shutdown() {
	p.scheduler.Shutdown()
}

// Snapshot returns a consistent-enough copy of the counters for display.
func (p *Pipeline) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Messages:        p.stats.Messages.Load(),
		Heartbeats:      p.stats.Heartbeats.Load(),
		CertUpdates:     p.stats.CertUpdates.Load(),
		SkippedMessages: p.stats.SkippedMessages.Load(),
		DomainsSeen:     p.stats.DomainsSeen.Load(),
		DomainsScored:   p.stats.DomainsScored.Load(),
		Alerts:          p.stats.Alerts.Load(),
		Elapsed:         time.Since(p.stats.StartTime),
	}
}
