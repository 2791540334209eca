package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/quotabar/internal/orchestrator"
)

func init() {
	watchCmd.Flags().DurationP("interval", "i", 0, "Poll interval (default from config)")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously refresh the usage table",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			interval = a.cfg.Settings.RefreshInterval
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = a.orch.Watch(ctx, interval, a.cfg.ProviderIDs(), func(snap orchestrator.Snapshot) {
			// Clear the screen and repaint, terminal-dashboard style.
			fmt.Print("\033[2J\033[H")
			PrintTable(snap.Results)
			fmt.Printf("Next refresh in %s. Press Ctrl+C to stop.\n", interval)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
