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

	"golang.org/x/net/publicsuffix"
)

// SuffixResolver resolves a domain to its registrable root (eTLD+1).
// An error means the domain has no registrable root (bare suffixes, IP
// literals, junk names). That is an expected outcome, not a failure: the
// root/subdomain heuristics simply contribute nothing for such domains.
type SuffixResolver interface {
	RegistrableDomain(domain string) (string, error)
}

// PSLResolver resolves against the public suffix list compiled into
// golang.org/x/net/publicsuffix. No network fetch, no startup cost.
type PSLResolver struct{}

func (PSLResolver) RegistrableDomain(domain string) (string, error) {
	return publicsuffix.EffectiveTLDPlusOne(domain)
}

// Parts is the decomposition of a normalized domain into its registrable root
// and the residual subdomain. Subdomain may be empty.
type Parts struct {
	Root       string
	Subdomain  string
	RootLabels []string
	SubLabels  []string
}

// RootLabel returns the first label of the registrable root.
func (p Parts) RootLabel() string {
	if len(p.RootLabels) == 0 {
		return ""
	}
	return p.RootLabels[0]
}

// SubLabel returns the first label of the subdomain, or "" when there is none.
func (p Parts) SubLabel() string {
	if len(p.SubLabels) == 0 {
		return ""
	}
	return p.SubLabels[0]
}

// Decompose splits a normalized domain into registrable root and subdomain.
// The subdomain is taken by label-index slicing: exactly the trailing N labels
// matching the root's label count are removed. A textual substring replace
// would strip too much whenever the root string recurs earlier in the domain
// (e.g. "example.com.example.com").
func Decompose(normalized string, resolver SuffixResolver) (Parts, bool) {
	root, err := resolver.RegistrableDomain(normalized)
	if err != nil || root == "" {
		return Parts{}, false
	}

	labels := strings.Split(normalized, ".")
	rootLabels := strings.Split(root, ".")
	if len(rootLabels) > len(labels) {
		return Parts{}, false
	}

	subLabels := labels[:len(labels)-len(rootLabels)]
	return Parts{
		Root:       root,
		Subdomain:  strings.Join(subLabels, "."),
		RootLabels: rootLabels,
		SubLabels:  subLabels,
	}, true
}
