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
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cardinalhq/roomarchiver/internal/compressor"
	"github.com/cardinalhq/roomarchiver/internal/delayqueue"
	"github.com/cardinalhq/roomarchiver/internal/logctx"
)

// runWorker is the queue's only consumer. Compression is CPU and I/O
// bound, so it runs here, off the ingestion path; the worker itself is
// serial, one file at a time. An invalid path is logged and skipped.
// Any other compression failure is returned and tears down the
// pipeline; the supervising layer decides whether to restart.
func runWorker(ctx context.Context, queue *delayqueue.Queue[string]) error {
	ll := logctx.FromContext(ctx)

	for {
		path, err := queue.Next(ctx)
		if err != nil {
			// Cancelled; in-flight work, if any, already finished.
			return nil
		}

		out, err := compressor.Compress(ll, path)
		switch {
		case err == nil:
			compressionsTotal.Add(ctx, 1, outcomeAttr("success"))
			ll.Info("Compressed archive", slog.String("path", out))
		case errors.Is(err, compressor.ErrInvalidPath):
			compressionsTotal.Add(ctx, 1, outcomeAttr("invalid_path"))
			ll.Error("Invalid path", slog.String("path", path))
		default:
			compressionsTotal.Add(ctx, 1, outcomeAttr("error"))
			return fmt.Errorf("compress %s: %w", path, err)
		}
	}
}
