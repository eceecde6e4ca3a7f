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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()
	set := Default()
	require.NotZero(t, set.Len())
	assert.Contains(t, set.Words(), "paypal")
	assert.Contains(t, set.Words(), "secure")
}

func TestLoadEmptyPathYieldsDefaults(t *testing.T) {
	t.Parallel()
	set, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Words(), set.Words())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	content := "keywords:\n  - paypal\n  - \"  apple  \"\n  - paypal\n  - \"\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	set, err := Load(path)
	require.NoError(t, err)
	// Trimmed, deduplicated, order preserved.
	assert.Equal(t, []string{"paypal", "apple"}, set.Words())
	assert.Equal(t, 2, set.Len())
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords: {{{"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEmptySetRejected(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords:\n  - \"\"\n  - \"   \"\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "no keywords")
}
