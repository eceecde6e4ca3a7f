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
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certfisk/certfisk/internal/scoring"
)

func newTestAlertWriter(t *testing.T) (*AlertWriter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alerts.log")
	aw, err := NewAlertWriter(path)
	require.NoError(t, err)
	t.Cleanup(func() { aw.Close() })
	aw.now = func() time.Time {
		return time.Date(2026, 8, 29, 13, 37, 42, 0, time.UTC)
	}
	return aw, path
}

func TestAlertWriterLineFormat(t *testing.T) {
	t.Parallel()
	aw, path := newTestAlertWriter(t)

	require.NoError(t, aw.Append(scoring.Report{
		Score:      129,
		Raw:        "com.paypal-secure.net",
		Normalized: "com.paypal-secure.net",
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[2026-08-29][13:37:42] com.paypal-secure.net\n", string(data))
}

func TestAlertWriterPunycodeLineFormat(t *testing.T) {
	t.Parallel()
	aw, path := newTestAlertWriter(t)

	require.NoError(t, aw.Append(scoring.Report{
		Score:      85,
		Raw:        "xn--e1afmkfd.attacker.com",
		Normalized: "пример.attacker.com",
		Punycode:   1,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[2026-08-29][13:37:42] пример.attacker.com - (Punycode: xn--e1afmkfd.attacker.com)\n", string(data))
}

func TestAlertWriterAppendsAcrossOpens(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "alerts.log")
	for i := 0; i < 2; i++ {
		aw, err := NewAlertWriter(path)
		require.NoError(t, err)
		require.NoError(t, aw.Append(scoring.Report{Normalized: "bad.example.com"}))
		require.NoError(t, aw.Close())
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
}

func TestAlertWriterConcurrentAppend(t *testing.T) {
	t.Parallel()
	aw, path := newTestAlertWriter(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = aw.Append(scoring.Report{Normalized: "bad.example.com"})
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSuffix(data, []byte("\n")), []byte("\n"))
	assert.Len(t, lines, 200)
	for _, line := range lines {
		assert.Equal(t, "[2026-08-29][13:37:42] bad.example.com", string(line))
	}
}

func TestReporterWritesAlertAtThreshold(t *testing.T) {
	t.Parallel()
	aw, path := newTestAlertWriter(t)
	var console bytes.Buffer
	r := NewReporter(aw, &console)

	rep := scoring.Report{
		Score:      scoring.AlertThreshold,
		Raw:        "paypal.attacker.com",
		Normalized: "paypal.attacker.com",
		Severity:   scoring.SeverityFor(scoring.AlertThreshold),
	}
	r.Report(rep)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "paypal.attacker.com")
	assert.Contains(t, console.String(), "paypal.attacker.com")
	assert.Contains(t, console.String(), "score 56")
}

func TestReporterQuietBelowThreshold(t *testing.T) {
	t.Parallel()
	aw, path := newTestAlertWriter(t)
	var console bytes.Buffer
	r := NewReporter(aw, &console)

	r.Report(scoring.Report{
		Score:      49,
		Raw:        "mail.google.com",
		Normalized: "mail.google.com",
		Severity:   scoring.SeverityFor(49),
	})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Empty(t, console.String())
}

func TestReporterNilAlertWriter(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	r := NewReporter(nil, &console)

	// Must not panic when persistence is disabled.
	r.Report(scoring.Report{
		Score:      129,
		Normalized: "com.paypal-secure.net",
		Severity:   scoring.SeverityHigh,
	})
	assert.Contains(t, console.String(), "com.paypal-secure.net")
}
