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

package archive

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("github.com/cardinalhq/roomarchiver/internal/archive")

	compressionsTotal metric.Int64Counter
	recoveredTotal    metric.Int64Counter
)

func init() {
	var err error
	compressionsTotal, err = meter.Int64Counter(
		"roomarchiver.compressions",
		metric.WithDescription("Compression attempts by outcome"),
	)
	if err != nil {
		slog.Error("Failed to create compressions counter", slog.Any("error", err))
	}
	recoveredTotal, err = meter.Int64Counter(
		"roomarchiver.recovered_files",
		metric.WithDescription("Finalized files re-enqueued by the startup scan"),
	)
	if err != nil {
		slog.Error("Failed to create recovered_files counter", slog.Any("error", err))
	}
}

func outcomeAttr(outcome string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("outcome", outcome))
}
