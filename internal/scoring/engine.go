/*
Package scoring implements the domain risk-scoring pipeline: normalization of
raw certificate domains (wildcard markers, punycode labels), decomposition into
registrable root and subdomain via a public-suffix resolver, and a weighted
multi-heuristic score that flags likely brand impersonations.

Scoring is a pure function of the domain, the immutable keyword set, and the
resolver. No state is carried between domains, which is what makes scoring
whole certificate batches concurrently safe.
*/
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

	"github.com/hbollon/go-edlib"
)

// Heuristic weights. The score of a domain is the sum of independent,
// non-negative contributions; summation order never matters.
const (
	// punycodeWeight multiplies the number of "xn--" occurrences in the raw domain.
	punycodeWeight = 5
	// keywordBase scales the containment weights below.
	keywordBase = 10
	// rootKeywordWeight applies when the root's first label contains a keyword.
	rootKeywordWeight = 4
	// subKeywordWeight applies when the subdomain's first label contains a keyword.
	subKeywordWeight = 6
	// tldTokenWeight applies when the subdomain's first label spoofs a TLD token.
	tldTokenWeight = 8
	// fuzzyScore is awarded per keyword at Damerau-Levenshtein distance exactly
	// one: a near-miss detector for typosquats ("paypa1"), not a general
	// similarity threshold. Distance zero is the brand itself and is already
	// caught by containment.
	fuzzyScore    = 40
	fuzzyDistance = 1
	// nestingFactor multiplies the label count once a domain nests three or more
	// labels deep.
	nestingFactor   = 3
	minNestedLabels = 3
)

// spoofTokens are exact-match (case-insensitive) tokens on the subdomain's
// first label: "com.secure-update.net" style spoofs of a registrable TLD.
var spoofTokens = []string{"com", "net", "-net", "-com", "net-", "com-"}

// Report is the terminal scoring artifact for one raw domain. Consumed by the
// reporter and discarded; nothing is retained across domains.
type Report struct {
	Score      int
	Raw        string
	Normalized string
	Punycode   int
	Severity   Severity
}

// Engine scores domains against a fixed keyword set. Read-only after
// construction; safe for concurrent use.
type Engine struct {
	keywords []string
	resolver SuffixResolver
}

// NewEngine builds a scoring engine. The keyword slice is treated as immutable
// for the lifetime of the engine.
func NewEngine(keywords []string, resolver SuffixResolver) *Engine {
	return &Engine{keywords: keywords, resolver: resolver}
}

// Score normalizes and scores one raw certificate domain.
func (e *Engine) Score(raw string) Report {
	normalized := NormalizeDomain(raw)
	punycode := PunycodeCount(raw)
	score := punycodeWeight * punycode

	if parts, ok := Decompose(normalized, e.resolver); ok {
		rootLabel := parts.RootLabel()
		subLabel := parts.SubLabel()

		for _, key := range e.keywords {
			score += keywordContains(rootLabel, key, rootKeywordWeight)
			score += editDistanceScore(rootLabel, key)
			score += keywordContains(subLabel, key, subKeywordWeight)
			score += editDistanceScore(subLabel, key)
		}
		for _, token := range spoofTokens {
			score += keywordExactMatch(subLabel, token, tldTokenWeight)
		}
	}

	score += nestingScore(normalized)

	return Report{
		Score:      score,
		Raw:        raw,
		Normalized: normalized,
		Punycode:   punycode,
		Severity:   SeverityFor(score),
	}
}

// keywordContains awards keywordBase*weight when the label contains the
// keyword as a case-sensitive substring.
func keywordContains(label, key string, weight int) int {
	if key != "" && strings.Contains(label, key) {
		return keywordBase * weight
	}
	return 0
}

// keywordExactMatch awards keywordBase*weight on a case-insensitive exact match.
func keywordExactMatch(label, key string, weight int) int {
	if label != "" && strings.EqualFold(label, key) {
		return keywordBase * weight
	}
	return 0
}

// editDistanceScore awards fuzzyScore when the label sits at Damerau-Levenshtein
// distance exactly fuzzyDistance from the keyword. Insertions, deletions,
// substitutions and adjacent transpositions all count as one operation.
func editDistanceScore(label, key string) int {
	if label == "" || key == "" {
		return 0
	}
	if edlib.DamerauLevenshteinDistance(label, key) == fuzzyDistance {
		return fuzzyScore
	}
	return 0
}

// nestingScore penalizes deeply nested names: three or more labels score
// nestingFactor per label, fewer score nothing.
func nestingScore(domain string) int {
	n := strings.Count(domain, ".") + 1
	if n >= minNestedLabels {
		return n * nestingFactor
	}
	return 0
}
