package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpsbeacon/internal/identity"
)

func fileOpts(t *testing.T) options {
	t.Helper()
	return options{
		storage: identity.StorageConfig{Backend: "file", Path: filepath.Join(t.TempDir(), "sub", "id.img")},
		create:  true,
		sync:    "2DD4",
	}
}

func TestRun_ProvisionsAndPrints(t *testing.T) {
	opts := fileOpts(t)
	opts.station = "W1ABC"

	var out bytes.Buffer
	require.NoError(t, run(opts, &out))
	assert.Equal(t, `station="W1ABC " sync=0x2D,0xD4`+"\n", out.String())

	img, err := identity.OpenImage(opts.storage.Path)
	require.NoError(t, err)
	defer img.Close()
	rec, err := identity.Load(img)
	require.NoError(t, err)
	assert.Equal(t, "W1ABC", rec.StationID())

	// A plain run only prints.
	opts.station = ""
	out.Reset()
	require.NoError(t, run(opts, &out))
	assert.Contains(t, out.String(), `"W1ABC "`)
}

func TestRun_FreshImageIsErased(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(fileOpts(t), &out))
	assert.Contains(t, out.String(), "sync=0xFF,0xFF")
}

func TestRun_Erase(t *testing.T) {
	opts := fileOpts(t)
	opts.station = "N0CALL"
	require.NoError(t, run(opts, &bytes.Buffer{}))

	opts.station = ""
	opts.erase = true
	var out bytes.Buffer
	require.NoError(t, run(opts, &out))
	assert.Contains(t, out.String(), "sync=0xFF,0xFF")
}

func TestRun_Errors(t *testing.T) {
	opts := fileOpts(t)
	opts.station = "TOOLONG1"
	err := run(opts, &bytes.Buffer{})
	assert.ErrorIs(t, err, identity.ErrStationTooLong)

	opts = fileOpts(t)
	opts.station = "W1ABC"
	opts.sync = "xyz"
	assert.Error(t, run(opts, &bytes.Buffer{}))

	opts = fileOpts(t)
	opts.station, opts.erase = "W1ABC", true
	err = run(opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "exclusive"))

	opts = fileOpts(t)
	opts.create = false
	assert.Error(t, run(opts, &bytes.Buffer{}))
}
