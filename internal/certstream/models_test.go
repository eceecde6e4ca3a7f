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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCertUpdate = `{
  "message_type": "certificate_update",
  "data": {
    "update_type": "X509LogEntry",
    "leaf_cert": {
      "subject": {"CN": "example.com"},
      "not_before": 1756339200,
      "not_after": 1764201600,
      "serial_number": "0A1B2C",
      "fingerprint": "AA:BB:CC",
      "all_domains": ["example.com", "*.example.com", "paypal.attacker.com"]
    },
    "cert_index": 12345,
    "seen": 1756339201.5,
    "source": {"name": "Example Log", "url": "ct.example.org"}
  }
}`

func TestParseMessageCertificateUpdate(t *testing.T) {
	t.Parallel()
	msg, err := ParseMessage([]byte(sampleCertUpdate))
	require.NoError(t, err)
	assert.Equal(t, KindCertificateUpdate, msg.Kind())
	assert.Equal(t, []string{"example.com", "*.example.com", "paypal.attacker.com"}, msg.Domains())
	assert.Equal(t, "0A1B2C", msg.Data.LeafCert.SerialNumber)
	assert.Equal(t, "Example Log", msg.Data.Source["name"])
}

func TestParseMessageHeartbeat(t *testing.T) {
	t.Parallel()
	msg, err := ParseMessage([]byte(`{"message_type": "heartbeat"}`))
	require.NoError(t, err)
	assert.Equal(t, KindHeartbeat, msg.Kind())
	assert.Empty(t, msg.Domains())
}

func TestParseMessageMalformed(t *testing.T) {
	t.Parallel()
	_, err := ParseMessage([]byte(`{"message_type": `))
	assert.Error(t, err)
}

func TestKindByContainment(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		messageType string
		want        Kind
	}{
		{"heartbeat", KindHeartbeat},
		{"certstream/heartbeat", KindHeartbeat},
		{"certificate_update", KindCertificateUpdate},
		{"dns_entries_certificate_update", KindCertificateUpdate},
		{"", KindUnknown},
		{"something_else", KindUnknown},
	}
	for _, tc := range testCases {
		m := &Message{MessageType: tc.messageType}
		assert.Equalf(t, tc.want, m.Kind(), "message_type %q", tc.messageType)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "heartbeat", KindHeartbeat.String())
	assert.Equal(t, "certificate_update", KindCertificateUpdate.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
