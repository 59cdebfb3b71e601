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

package collector

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("github.com/cardinalhq/roomarchiver/internal/collector")

	recordsWritten metric.Int64Counter
	rotationsTotal metric.Int64Counter
)

func init() {
	var err error
	recordsWritten, err = meter.Int64Counter(
		"roomarchiver.records.written",
		metric.WithDescription("Records appended to archive files"),
	)
	if err != nil {
		slog.Error("Failed to create records.written counter", slog.Any("error", err))
	}
	rotationsTotal, err = meter.Int64Counter(
		"roomarchiver.rotations",
		metric.WithDescription("Archive files finalized on day rotation"),
	)
	if err != nil {
		slog.Error("Failed to create rotations counter", slog.Any("error", err))
	}
}
