package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/rpcauthority"
)

const pollWaitInspect = 200 * time.Millisecond

var (
	inspectAddr    string
	inspectWorldID uint32
	inspectX       int32
	inspectY       int32
	inspectZ       int32
)

var inspectChunkCmd = &cobra.Command{
	Use:   "inspect-chunk",
	Short: "Fetch a single chunk from a remote authority and print its exported blob length and state",
	RunE:  runInspectChunk,
}

func init() {
	inspectChunkCmd.Flags().StringVar(&inspectAddr, "addr", "http://127.0.0.1:19132", "base URL of the remote RPC authority")
	inspectChunkCmd.Flags().Uint32Var(&inspectWorldID, "world-id", 0, "remote numeric world id")
	inspectChunkCmd.Flags().Int32Var(&inspectX, "x", 0, "chunk X coordinate")
	inspectChunkCmd.Flags().Int32Var(&inspectY, "y", 0, "chunk Y coordinate")
	inspectChunkCmd.Flags().Int32Var(&inspectZ, "z", 0, "chunk Z coordinate")
	rootCmd.AddCommand(inspectChunkCmd)
}

func runInspectChunk(cmd *cobra.Command, args []string) error {
	log := slog.Default()
	client := rpcauthority.NewClient(inspectAddr, nil, log)

	pos := chunk.Pos{X: inspectX, Y: inspectY, Z: inspectZ}
	future := client.RequestChunk(inspectWorldID, pos)

	for {
		got, ready, err := future.Poll(pollWaitInspect)
		if err != nil {
			return fmt.Errorf("fetch chunk %s: %w", pos.String(), err)
		}
		if !ready {
			continue
		}
		fmt.Printf("chunk %s: %d cells exported (monotonic=%v)\n", pos.String(), len(got), len(got) == 1)
		return nil
	}
}
