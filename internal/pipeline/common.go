/*
Package pipeline wires the stream consumer to the scoring engine: it
classifies incoming messages, fans the domains of a certificate update out
onto a sharded worker pool, and hands each finished score to the reporter.
Domains are independent, with no ordering between them and no shared mutable
state, so scoring them concurrently is free.
*/
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

import "time"

// Worker pool tuning.
const (
	// MaxShardQueueSize caps each worker's queue; a full queue signals
	// backpressure to the submitter.
	MaxShardQueueSize = 1000

	// WorkerMultiplier scales worker count off the CPU count.
	WorkerMultiplier = 2

	// MaxWorkers is the absolute upper bound on pool size.
	MaxWorkers = 256

	// MaxSubmitRetries bounds re-submission attempts after a queue-full signal.
	MaxSubmitRetries = 3
	// SubmitRetryDelay is the pause between submission attempts.
	SubmitRetryDelay = 250 * time.Millisecond

	// workerRateLimit is each worker's sustained intake in items/second.
	// Certificate updates arrive in bursts of dozens of SAN entries; the
	// limiter smooths those bursts without capping steady-state throughput.
	workerRateLimit = 1000
)

// WorkItem is one raw domain queued for scoring. Pooled via sync.Pool to keep
// allocation churn down on busy streams.
type WorkItem struct {
	RawDomain string
	Callback  WorkCallback
}

// WorkCallback scores and reports a single domain.
type WorkCallback func(item *WorkItem) error
