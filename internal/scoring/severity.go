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

// Severity tiers, evaluated highest-first against fixed thresholds.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

// Fixed score thresholds. AlertThreshold is the floor for persisting a domain
// to the alert log, independent of console presentation tier.
const (
	HighThreshold   = 76
	MediumThreshold = 68
	LowThreshold    = 56
	AlertThreshold  = LowThreshold
)

// SeverityFor maps a score to its tier.
func SeverityFor(score int) Severity {
	switch {
	case score >= HighThreshold:
		return SeverityHigh
	case score >= MediumThreshold:
		return SeverityMedium
	case score >= LowThreshold:
		return SeverityLow
	default:
		return SeverityNone
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low-suspicious"
	default:
		return "none"
	}
}
