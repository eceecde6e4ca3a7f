package scoring

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
	"strings"

	"golang.org/x/net/idna"
)

// punycodeMarker prefixes ASCII-compatible encoded labels (RFC 3492).
const punycodeMarker = "xn--"

// NormalizeDomain converts a raw certificate domain into the form the scoring
// heuristics compare against: a leading "*." wildcard marker is removed (once,
// never mid-string), and every punycode-encoded label is replaced by its
// decoded Unicode form. Labels that fail to decode are kept as-is; a single
// bad label must not take a whole stream iteration down. Label count is
// preserved; decoding never crosses label boundaries.
func NormalizeDomain(raw string) string {
	domain := strings.TrimPrefix(raw, "*.")
	if !strings.Contains(domain, punycodeMarker) {
		return domain
	}

	labels := strings.Split(domain, ".")
	for i, label := range labels {
		if !strings.HasPrefix(label, punycodeMarker) {
			continue
		}
		decoded, err := idna.Punycode.ToUnicode(label)
		if err != nil {
			// Keep the encoded label; downstream heuristics still see it and
			// the punycode score signal is computed from the raw domain anyway.
			continue
		}
		labels[i] = decoded
	}
	return strings.Join(labels, ".")
}

// PunycodeCount counts "xn--" occurrences in the raw domain. Used both as a
// scoring signal (each encoded label adds weight) and as the marker for the
// punycode annotation on reported alerts.
func PunycodeCount(raw string) int {
	return strings.Count(raw, punycodeMarker)
}
