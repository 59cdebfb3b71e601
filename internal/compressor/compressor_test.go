// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package compressor

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decompress(t *testing.T, path string) []byte {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	r, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestCompressRoundTrip(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`{"body":["hello"]}` + "\n" + `{"body":["world"]}` + "\n")
	pending := filepath.Join(dir, "07.json.compress-0badcafe")
	require.NoError(t, os.WriteFile(pending, content, 0o644))

	out, err := Compress(discardLogger(), pending)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "07.json.gz"), out)
	assert.Equal(t, content, decompress(t, out))
	assert.NoFileExists(t, pending, "source should be removed after compression")
}

func TestCompressRejectsInvalidPath(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"07.json", "07.json.gz", "07.json.compress-xyz"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

		_, err := Compress(discardLogger(), path)
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", name)
		assert.FileExists(t, path, "rejected file must be left untouched")
	}
}

func TestCompressNeverOverwrites(t *testing.T) {
	dir := t.TempDir()

	// An unrelated compressed file already owns the canonical name.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "07.json.gz"), []byte("old"), 0o644))

	pending := filepath.Join(dir, "07.json.compress-deadbeef")
	require.NoError(t, os.WriteFile(pending, []byte("new\n"), 0o644))

	out, err := Compress(discardLogger(), pending)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "07-00000001.json.gz"), out)
	assert.Equal(t, []byte("new\n"), decompress(t, out))

	old, err := os.ReadFile(filepath.Join(dir, "07.json.gz"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestConcurrentFinalizesCompressDistinctly(t *testing.T) {
	dir := t.TempDir()

	var outs []string
	for i := 0; i < 100; i++ {
		pending := filepath.Join(dir, fmt.Sprintf("07.json.compress-%08x", i))
		require.NoError(t, os.WriteFile(pending, []byte("x"), 0o644))
		out, err := Compress(discardLogger(), pending)
		require.NoError(t, err)
		outs = append(outs, out)
	}

	seen := make(map[string]struct{}, len(outs))
	for _, o := range outs {
		seen[o] = struct{}{}
	}
	assert.Len(t, seen, 100)
}

func TestCompressMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := Compress(discardLogger(), filepath.Join(dir, "07.json.compress-0badcafe"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPath)
}
