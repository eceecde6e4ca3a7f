package config

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

	"github.com/certfisk/certfisk/internal/certstream"
)

func TestLoadEmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, certstream.DefaultStreamURL, cfg.StreamURL)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 8\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unnamed fields keep their defaults.
	assert.Equal(t, certstream.DefaultStreamURL, cfg.StreamURL)
	assert.Equal(t, "certfisk.log", cfg.AlertLog)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stream_url: {{{"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	cfg.StreamURL = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Workers = -1
	assert.Error(t, cfg.Validate())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stream_url: \"\"\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
