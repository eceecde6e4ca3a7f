/*
Package report turns score reports into operator-facing output: severity-styled
console lines for suspicious domains, and an append-only timestamped alert log
for anything at or above the persistence threshold.
*/
package report

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
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/certfisk/certfisk/internal/metrics"
	"github.com/certfisk/certfisk/internal/scoring"
)

// alertTimestampLayout is the fixed prefix of every alert-log line.
const alertTimestampLayout = "[2006-01-02][15:04:05]"

// AlertWriter appends alert lines to a log file. Log/alert emission for a
// domain happens only after its full score is computed, so a line is always a
// finished verdict. Safe for concurrent use.
type AlertWriter struct {
	mu  sync.Mutex
	w   *bufio.Writer
	f   *os.File
	now func() time.Time
}

// NewAlertWriter opens (or creates) the alert log for appending.
func NewAlertWriter(path string) (*AlertWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening alert log %s: %w", path, err)
	}
	return &AlertWriter{
		w:   bufio.NewWriter(f),
		f:   f,
		now: time.Now,
	}, nil
}

// Append writes one alert line:
//
//	[<date>][<time>] <normalized_domain>
//	[<date>][<time>] <normalized_domain> - (Punycode: <raw_domain>)
//
// The punycode form is included when the raw domain carried encoded labels.
// Flushed per line; alerts are rare and tail -f should see them immediately.
func (a *AlertWriter) Append(rep scoring.Report) error {
	ts := a.now().Format(alertTimestampLayout)
	var line string
	if rep.Punycode > 0 {
		line = fmt.Sprintf("%s %s - (Punycode: %s)\n", ts, rep.Normalized, rep.Raw)
	} else {
		line = fmt.Sprintf("%s %s\n", ts, rep.Normalized)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.w.WriteString(line); err != nil {
		return fmt.Errorf("writing alert line: %w", err)
	}
	return a.w.Flush()
}

// Close flushes and closes the underlying file.
func (a *AlertWriter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.w.Flush(); err != nil {
		a.f.Close()
		return err
	}
	return a.f.Close()
}

// Console severity styles.
var (
	styleHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("13")) // magenta
	styleLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
)

// Reporter maps a score report to its output side effects. The console tier
// and the persisted alert log are independent: both trigger at score >= 56,
// only the styling escalates with the tier.
type Reporter struct {
	alerts *AlertWriter
	out    io.Writer
}

// NewReporter builds a reporter. alerts may be nil to disable persistence
// (used by the offline score command); out defaults to stdout.
func NewReporter(alerts *AlertWriter, out io.Writer) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{alerts: alerts, out: out}
}

// Report emits the console alert and alert-log entry for one scored domain.
func (r *Reporter) Report(rep scoring.Report) {
	switch rep.Severity {
	case scoring.SeverityHigh:
		r.printDomain(rep, styleHigh)
	case scoring.SeverityMedium:
		r.printDomain(rep, styleMedium)
	case scoring.SeverityLow:
		r.printDomain(rep, styleLow)
	case scoring.SeverityNone:
		return
	}

	if rep.Score >= scoring.AlertThreshold {
		if metrics.IsMetricsEnabled() {
			metrics.GetMetrics().AlertsTotal.WithLabelValues(rep.Severity.String()).Inc()
		}
		if r.alerts != nil {
			// Reporting is a side effect only; a failed write must not stall
			// the stream.
			_ = r.alerts.Append(rep)
		}
	}
}

func (r *Reporter) printDomain(rep scoring.Report, style lipgloss.Style) {
	if rep.Punycode > 0 {
		fmt.Fprintf(r.out, "Suspicious %s (score %d) (Punycode: %s)\n", style.Render(rep.Normalized), rep.Score, rep.Raw)
	} else {
		fmt.Fprintf(r.out, "Suspicious %s (score %d)\n", style.Render(rep.Normalized), rep.Score)
	}
}
