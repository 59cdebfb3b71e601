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

// Package events defines the structured record type the protocol layer
// hands to an archiving pipeline, and its line-delimited JSON encoding.
package events

import (
	"io"

	json "github.com/goccy/go-json"
)

// Record is one chat-room event: a mapping from field name to the values
// observed for that field. A field may carry several values; their order
// is preserved.
type Record map[string][]string

// RecordSource is the per-source handle provided by the protocol layer.
// Identifier returns the source's canonical identifier and is available
// from session start. Records yields the live event feed and is closed
// when the source's session ends.
type RecordSource interface {
	Identifier() string
	Records() <-chan Record
}

// ChanSource adapts a plain channel to a RecordSource.
type ChanSource struct {
	ID string
	Ch <-chan Record
}

func (s *ChanSource) Identifier() string     { return s.ID }
func (s *ChanSource) Records() <-chan Record { return s.Ch }

// AppendLine writes r to w as a single newline-terminated JSON object.
func AppendLine(w io.Writer, r Record) error {
	return json.NewEncoder(w).Encode(r)
}

// FromLine parses one JSON line into a Record.
func FromLine(line []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, err
	}
	return r, nil
}
