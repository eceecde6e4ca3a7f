/*
Package keywords holds the brand/security keyword set the scoring engine
matches domains against. The set is loaded once at startup, either from the
compiled-in defaults or from a YAML file, and is immutable for the life of
the process.
*/
package keywords

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
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaults are the brands and security-sensitive terms most commonly abused in
// certificate phishing. Matching is case-sensitive substring containment, so
// entries are lowercase; certificate SAN entries are lowercase in practice.
var defaults = []string{
	"paypal",
	"apple",
	"icloud",
	"itunes",
	"appleid",
	"amazon",
	"google",
	"gmail",
	"microsoft",
	"outlook",
	"office365",
	"windows",
	"netflix",
	"facebook",
	"instagram",
	"whatsapp",
	"twitter",
	"linkedin",
	"dropbox",
	"github",
	"ebay",
	"alibaba",
	"coinbase",
	"binance",
	"blockchain",
	"bitcoin",
	"wallet",
	"banking",
	"wellsfargo",
	"citibank",
	"santander",
	"barclays",
	"hsbc",
	"secure",
	"account",
	"login",
	"signin",
	"verify",
	"update",
	"support",
	"password",
	"recover",
	"authorize",
}

// Set is an immutable keyword collection.
type Set struct {
	words []string
}

// file is the YAML schema for a keyword override file.
type file struct {
	Keywords []string `yaml:"keywords"`
}

// Default returns the compiled-in keyword set.
func Default() *Set {
	return newSet(defaults)
}

// Load reads a keyword set from a YAML file ("keywords:" list). An empty path
// yields the defaults. A file that exists but yields no usable keywords is an
// error; scoring against an empty set is silently useless.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keyword file %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing keyword file %s: %w", path, err)
	}

	s := newSet(f.Keywords)
	if s.Len() == 0 {
		return nil, fmt.Errorf("keyword file %s contains no keywords", path)
	}
	return s, nil
}

// newSet trims, drops empties and deduplicates while preserving order.
func newSet(words []string) *Set {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return &Set{words: out}
}

// Words returns the keyword slice. Callers must treat it as read-only.
func (s *Set) Words() []string {
	return s.words
}

// Len returns the number of keywords in the set.
func (s *Set) Len() int {
	return len(s.words)
}
