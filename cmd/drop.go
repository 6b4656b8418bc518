package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dropForce bool

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the metrics database",
	Long: `Delete the SQLite metrics database together with its WAL and shared-memory
files. Stored games, statistics and run history are lost; run extract --store
again to rebuild them.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "delete without asking")
}

// dbFiles lists the database file and the sidecar files SQLite creates in WAL mode.
func dbFiles(path string) []string {
	return []string{path, path + "-wal", path + "-shm"}
}

func runDrop(cmd *cobra.Command, args []string) error {
	if !dropForce {
		fmt.Fprintf(os.Stderr, "would delete %s (use --force)\n", dbPath)
		return nil
	}
	removed := 0
	for _, f := range dbFiles(dbPath) {
		err := os.Remove(f)
		switch {
		case err == nil:
			removed++
		case !os.IsNotExist(err):
			return fmt.Errorf("remove %s: %w", f, err)
		}
	}
	if removed == 0 {
		fmt.Println("No database at", dbPath)
		return nil
	}
	fmt.Println("Deleted", dbPath)
	return nil
}
