/*
Package certstream consumes a certificate-transparency aggregation stream over
a long-lived websocket connection and classifies each payload as a heartbeat,
a certificate update carrying leaf-certificate domains, or noise.
*/
package certstream

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
	"encoding/json"
	"fmt"
	"strings"
)

// Message is one payload from the stream.
type Message struct {
	MessageType string `json:"message_type"`
	Data        Data   `json:"data"`
}

// Data is the certificate-update body.
type Data struct {
	UpdateType string            `json:"update_type"`
	LeafCert   LeafCert          `json:"leaf_cert"`
	CertIndex  float64           `json:"cert_index"`
	Seen       float64           `json:"seen"`
	Source     map[string]string `json:"source"`
}

// LeafCert carries the fields of the leaf certificate the scorer cares about.
// AllDomains is the CN plus subject-alternative-names, in stream order.
type LeafCert struct {
	Subject      map[string]string `json:"subject"`
	NotBefore    float64           `json:"not_before"`
	NotAfter     float64           `json:"not_after"`
	SerialNumber string            `json:"serial_number"`
	Fingerprint  string            `json:"fingerprint"`
	AllDomains   []string          `json:"all_domains"`
}

// Kind classifies a stream message for routing.
type Kind int

const (
	KindUnknown Kind = iota
	KindHeartbeat
	KindCertificateUpdate
)

func (k Kind) String() string {
	switch k {
	case KindHeartbeat:
		return "heartbeat"
	case KindCertificateUpdate:
		return "certificate_update"
	default:
		return "unknown"
	}
}

// Kind routes the message. The aggregator is loose about exact type strings,
// so containment is the contract: anything mentioning "heartbeat" is a
// heartbeat, anything mentioning "certificate_update" carries domains, the
// rest is skipped.
func (m *Message) Kind() Kind {
	switch {
	case strings.Contains(m.MessageType, "heartbeat"):
		return KindHeartbeat
	case strings.Contains(m.MessageType, "certificate_update"):
		return KindCertificateUpdate
	default:
		return KindUnknown
	}
}

// Domains returns the leaf certificate's domain list.
func (m *Message) Domains() []string {
	return m.Data.LeafCert.AllDomains
}

// ParseMessage decodes one raw stream payload. A decode failure is a
// per-message condition; callers skip the message and keep reading.
func ParseMessage(payload []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("decoding stream payload: %w", err)
	}
	return &m, nil
}
