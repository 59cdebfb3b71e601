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

// Package compressor turns finalized archive files into gzip-compressed
// artifacts, never overwriting an existing compressed file.
package compressor

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/cardinalhq/roomarchiver/internal/archivefs"
)

// ErrInvalidPath is returned when Compress is invoked on a path that is
// not in the finalized (pending-compression) form. This guards against
// compressing an active or already-compressed file.
var ErrInvalidPath = archivefs.ErrInvalidPath

// Compress streams the finalized file at path into a new gzip file next
// to it, named after the original filename with a ".gz" suffix (plus a
// numeric counter on collision). The source file is removed only after
// the compressed copy has been synced to disk; a failed removal is
// logged and otherwise ignored, since an orphaned source next to its
// compressed copy is harmless. Returns the compressed file's path.
func Compress(ll *slog.Logger, path string) (string, error) {
	dir, name, err := archivefs.SplitPending(path)
	if err != nil {
		return "", err
	}

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open finalized file: %w", err)
	}
	defer func() { _ = src.Close() }()

	stem, ext := splitExt(name)
	dst, err := archivefs.CreateUnique(dir, stem, ext+".gz")
	if err != nil {
		return "", fmt.Errorf("create compressed file: %w", err)
	}

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		_ = gz.Close()
		_ = dst.Close()
		return "", fmt.Errorf("compress %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("finish compressed stream: %w", err)
	}
	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("sync compressed file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close compressed file: %w", err)
	}

	if err := os.Remove(path); err != nil {
		ll.Warn("Failed to remove compressed source", slog.String("path", path), slog.Any("error", err))
	}
	return dst.Name(), nil
}

// splitExt splits "07.json" into ("07", ".json"). A name without a dot
// keeps everything in the stem.
func splitExt(name string) (stem, ext string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i:]
	}
	return name, ""
}
