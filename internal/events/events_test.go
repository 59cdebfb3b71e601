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

package events

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLineIsNewlineTerminated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, AppendLine(&buf, Record{"type": {"message"}}))
	require.NoError(t, AppendLine(&buf, Record{"type": {"presence"}}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestAppendLinePreservesValueOrder(t *testing.T) {
	var buf bytes.Buffer
	rec := Record{"ip": {"10.0.0.2", "10.0.0.1", "192.168.0.9"}}
	require.NoError(t, AppendLine(&buf, rec))

	parsed, err := FromLine(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, rec, parsed)
}

func TestFromLineRejectsGarbage(t *testing.T) {
	_, err := FromLine([]byte("not json"))
	assert.Error(t, err)
}

func TestChanSource(t *testing.T) {
	ch := make(chan Record, 1)
	src := &ChanSource{ID: "room@conference.example.net", Ch: ch}

	assert.Equal(t, "room@conference.example.net", src.Identifier())

	ch <- Record{"body": {"hi"}}
	close(ch)

	rec, ok := <-src.Records()
	require.True(t, ok)
	assert.Equal(t, Record{"body": {"hi"}}, rec)
	_, ok = <-src.Records()
	assert.False(t, ok)
}
