package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/asipanicisco/meraki-migration/internal/capture"
	"github.com/asipanicisco/meraki-migration/internal/config"
	"github.com/asipanicisco/meraki-migration/internal/ui"
	"github.com/asipanicisco/meraki-migration/internal/util"
)

var captureOutput string

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture the source network configuration into a snapshot file",
	Long: `Walk the source network's configuration — network-level switch settings,
the device list, and every device's interfaces, routes, DHCP, and ports —
and write the result to a snapshot file for a later restore.

Resources that are absent or unreadable are left out of the snapshot;
only losing access to the network itself aborts the capture.`,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVarP(&captureOutput, "output", "o", "", "snapshot file (default from config, else <org>_<network>.json)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to load config", err.Error(), "run 'meraki-migration init' to create one"))
		return err
	}
	if cfg.Source.APIKey == "" {
		err := fmt.Errorf("no source API key")
		fmt.Fprint(os.Stderr, ui.FormatError("No source API key", "", "set MERAKI_SOURCE_API_KEY or source.api_key in migration.yml"))
		return err
	}

	logger := newLogger(cfg)
	client := newClient(cfg, cfg.Source.APIKey, logger)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Cross-check names against IDs before touching anything.
	if err := client.VerifyOrganization(ctx, cfg.Source.OrgID, cfg.Source.OrgName); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Source organization check failed", err.Error(), "check source.org_id and source.org_name in migration.yml"))
		return err
	}
	if err := client.VerifyNetwork(ctx, cfg.Source.NetworkID, cfg.Source.NetworkName); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Source network check failed", err.Error(), "check source.network_id and source.network_name in migration.yml"))
		return err
	}

	fmt.Println(ui.Bold(fmt.Sprintf("Capturing %s / %s...", cfg.Source.OrgName, cfg.Source.NetworkName)))
	start := time.Now()

	snap, err := capture.New(client, logger).Capture(ctx, capture.Source{
		OrgID:       cfg.Source.OrgID,
		OrgName:     cfg.Source.OrgName,
		NetworkID:   cfg.Source.NetworkID,
		NetworkName: cfg.Source.NetworkName,
	})
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Capture failed", err.Error(), ""))
		return err
	}

	out := captureOutput
	if out == "" {
		out = cfg.Snapshot
	}
	if out == "" {
		out = util.SanitizeName(cfg.Source.OrgName) + "_" + util.SanitizeName(cfg.Source.NetworkName) + ".json"
	}
	if err := snap.Save(out); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to write snapshot", err.Error(), ""))
		return err
	}

	info, _ := os.Stat(out)
	size := ""
	if info != nil {
		size = ", " + humanize.Bytes(uint64(info.Size()))
	}
	fmt.Println()
	ui.Success(fmt.Sprintf("Captured %d devices in %s (%s%s)",
		len(snap.Devices), time.Since(start).Round(time.Millisecond), filepath.Base(out), size))
	fmt.Printf("Next step: %s\n", ui.Bold("meraki-migration restore --snapshot "+out))
	return nil
}
