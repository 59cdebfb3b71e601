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

// Package archivefs owns the on-disk naming scheme of the archive tree:
// per-day active files, tag-suffixed pending-compression files, and
// collision-free compressed file creation.
package archivefs

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// ErrInvalidPath is returned when a path does not carry the
// pending-compression tag suffix.
var ErrInvalidPath = errors.New("not a pending-compression path")

var pendingRe = regexp.MustCompile(`(?i)^(.+)\.compress-[0-9a-f]{8}$`)

// DayPath returns the active archive file path for the given instant,
// interpreted in UTC: <dir>/<YYYY>/<MM>/<DD>.json.
func DayPath(dir string, t time.Time) string {
	t = t.UTC()
	return filepath.Join(
		dir,
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", int(t.Month())),
		fmt.Sprintf("%02d.json", t.Day()),
	)
}

// OpenAppend opens path for appending, creating parent directories as
// needed. An existing file is continued, not truncated.
func OpenAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// IsPending reports whether path names a finalized file awaiting
// compression.
func IsPending(path string) bool {
	return pendingRe.MatchString(filepath.Base(path))
}

// SplitPending returns the directory and the original filename of a
// pending-compression path, with the tag suffix removed. It returns
// ErrInvalidPath for anything else.
func SplitPending(path string) (dir, name string, err error) {
	dir, base := filepath.Split(path)
	m := pendingRe.FindStringSubmatch(base)
	if m == nil {
		return "", "", fmt.Errorf("%q: %w", path, ErrInvalidPath)
	}
	return filepath.Clean(dir), m[1], nil
}

// MarkPending renames an active file to its pending-compression form,
// appending ".compress-" and eight random hex digits. The tag is drawn
// from rng; a name already present on disk is rejected and redrawn, so
// the rename never clobbers an earlier hand-off.
func MarkPending(path string, rng *rand.Rand) (string, error) {
	dir, base := filepath.Split(path)
	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s.compress-%08x", base, rng.Uint32()))
		if _, err := os.Lstat(candidate); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if err := os.Rename(path, candidate); err != nil {
			return "", err
		}
		return candidate, nil
	}
}

// CreateUnique creates dir/<prefix><suffix> with O_EXCL so an existing
// file is never overwritten. On collision it retries with an
// incrementing eight-digit counter: <prefix>-00000001<suffix>, and so on.
func CreateUnique(dir, prefix, suffix string) (*os.File, error) {
	path := filepath.Join(dir, prefix+suffix)
	for n := 1; ; n++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%08d%s", prefix, n, suffix))
	}
}
