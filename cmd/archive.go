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

package cmd

import (
	"bufio"
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/roomarchiver/config"
	"github.com/cardinalhq/roomarchiver/internal/archive"
	"github.com/cardinalhq/roomarchiver/internal/events"
)

var archiveSource string

// archiveCmd runs one archiving pipeline, fed newline-delimited JSON
// records on stdin. The room/session protocol layer lives in a separate
// process and pipes decoded records in; this command owns everything
// from the record stream down to the compressed files on disk.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive one source's record stream from stdin",
	RunE: func(cmd *cobra.Command, _ []string) error {
		servicename := "roomarchiver-archive"
		setupLogging(servicename)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, cancel := handleSignals(cmd.Context())
		defer cancel()

		records := make(chan events.Record)
		go feedRecords(ctx, cmd.InOrStdin(), records)

		sup := archive.NewSupervisor(archive.SupervisorConfig{
			Root:         cfg.ArchiveDir,
			PollInterval: cfg.PollInterval,
		})
		return sup.Run(ctx, &events.ChanSource{ID: archiveSource, Ch: records})
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.Flags().StringVar(&archiveSource, "source", "", "canonical source identifier (room address)")
	_ = archiveCmd.MarkFlagRequired("source")
}

// feedRecords parses one JSON record per input line and forwards it,
// closing the channel at EOF. Malformed lines are logged and dropped so
// one bad record never stalls the stream.
func feedRecords(ctx context.Context, r io.Reader, out chan<- events.Record) {
	defer close(out)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		rec, err := events.FromLine(sc.Bytes())
		if err != nil {
			slog.Warn("Skipping malformed record", slog.Any("error", err))
			continue
		}
		select {
		case out <- rec:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		slog.Error("Record stream read failed", slog.Any("error", err))
	}
}
