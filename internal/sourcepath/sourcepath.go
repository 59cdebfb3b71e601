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

// Package sourcepath maps source identifiers (room addresses) to
// filesystem-safe directory names under the archive root.
package sourcepath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidIdentifier is returned when a source identifier is not in
	// canonical form. Callers must normalize identifiers upstream; this is
	// a defensive check, not a validator.
	ErrInvalidIdentifier = errors.New("source identifier is not in canonical form")

	// ErrEscapesRoot is returned when an encoded source path does not stay
	// inside the archive root after normalization.
	ErrEscapesRoot = errors.New("source path escapes the archive root")
)

const upperhex = "0123456789ABCDEF"

// Encode maps a canonical source identifier to a single path segment.
// Space and @ stay literal so directory names remain readable; every
// other byte outside [A-Za-z0-9_.-] is percent-escaped, multibyte runes
// byte by byte.
func Encode(id string) (string, error) {
	if id == "" || !utf8.ValidString(id) {
		return "", fmt.Errorf("%q: %w", id, ErrInvalidIdentifier)
	}
	if id != canonicalize(id) {
		return "", fmt.Errorf("%q: %w", id, ErrInvalidIdentifier)
	}

	var b strings.Builder
	for i := 0; i < len(id); i++ {
		c := id[i]
		if safeByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xf])
	}
	return b.String(), nil
}

// Join returns root joined with the encoded segment, verifying that the
// cleaned result still lies strictly inside root.
func Join(root, segment string) (string, error) {
	cleanRoot := filepath.Clean(root)
	joined := filepath.Join(cleanRoot, segment)
	if joined == cleanRoot || !strings.HasPrefix(joined, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%q: %w", segment, ErrEscapesRoot)
	}
	return joined, nil
}

// canonicalize strips a session resource suffix and lowercases the
// domain part, mirroring what the protocol layer does when it hands the
// identifier over.
func canonicalize(id string) string {
	if i := strings.IndexByte(id, '/'); i >= 0 {
		id = id[:i]
	}
	if at := strings.LastIndexByte(id, '@'); at >= 0 {
		id = id[:at+1] + strings.ToLower(id[at+1:])
	}
	return id
}

func safeByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '_', '.', '-', ' ', '@':
		return true
	}
	return false
}
