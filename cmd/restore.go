package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/asipanicisco/meraki-migration/internal/config"
	"github.com/asipanicisco/meraki-migration/internal/meraki"
	"github.com/asipanicisco/meraki-migration/internal/restore"
	"github.com/asipanicisco/meraki-migration/internal/snapshot"
	"github.com/asipanicisco/meraki-migration/internal/ui"
)

var (
	restoreSnapshot  string
	restoreDeviceMap string
	createNetwork    bool
	claimDevices     bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replay a snapshot onto the target network",
	Long: `Load a snapshot file and replay it onto the target network in dependency
order: shared network-level objects first, then each device's interfaces,
routes, DHCP, and ports. Server-assigned IDs baked into the snapshot are
remapped to their newly created counterparts as the restore proceeds.

Individual resource failures are recorded and skipped; the run always
finishes with a per-category outcome summary.`,
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringVarP(&restoreSnapshot, "snapshot", "s", "", "snapshot file to restore (default from config)")
	restoreCmd.Flags().StringVarP(&restoreDeviceMap, "device-map", "m", "", "YAML file mapping old serials to target serials")
	restoreCmd.Flags().BoolVar(&createNetwork, "create-network", false, "create the target network from the snapshot before restoring (implies --claim-devices)")
	restoreCmd.Flags().BoolVar(&claimDevices, "claim-devices", false, "claim the mapped target serials into the network before restoring")
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to load config", err.Error(), "run 'meraki-migration init' to create one"))
		return err
	}
	if cfg.Target.APIKey == "" {
		err := fmt.Errorf("no target API key")
		fmt.Fprint(os.Stderr, ui.FormatError("No target API key", "", "set MERAKI_TARGET_API_KEY or target.api_key in migration.yml"))
		return err
	}

	snapPath := restoreSnapshot
	if snapPath == "" {
		snapPath = cfg.Snapshot
	}
	snap, err := snapshot.Load(snapPath)
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to load snapshot", err.Error(), "run 'meraki-migration capture' first, or pass --snapshot"))
		return err
	}
	fmt.Println(ui.Dim(fmt.Sprintf("snapshot of %s (%s), captured %s",
		snap.SourceNetworkName, snap.SourceNetworkID, snap.Timestamp.Format("2006-01-02 15:04 MST"))))

	mapPath := restoreDeviceMap
	if mapPath == "" {
		mapPath = cfg.DeviceMap
	}
	mapping := map[string]string{}
	if mapPath != "" {
		mapping, err = config.LoadDeviceMap(mapPath)
		if err != nil {
			fmt.Fprint(os.Stderr, ui.FormatError("Failed to load device map", err.Error(), ""))
			return err
		}
	} else {
		// Same hardware moving between networks: serials map to themselves.
		for _, dev := range snap.Devices {
			mapping[dev.Serial] = dev.Serial
		}
		ui.Warn("no device map given; assuming devices keep their serials")
	}

	logger := newLogger(cfg)
	client := newClient(cfg, cfg.Target.APIKey, logger)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := client.VerifyOrganization(ctx, cfg.Target.OrgID, cfg.Target.OrgName); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Target organization check failed", err.Error(), "check target.org_id and target.org_name in migration.yml"))
		return err
	}

	networkID := cfg.Target.NetworkID
	if createNetwork {
		networkID, err = createTargetNetwork(ctx, client, cfg, snap)
		if err != nil {
			fmt.Fprint(os.Stderr, ui.FormatError("Failed to create target network", err.Error(), ""))
			return err
		}
		ui.Success(fmt.Sprintf("Created network %s (%s)", cfg.Target.NetworkName, networkID))
	} else if err := client.VerifyNetwork(ctx, networkID, cfg.Target.NetworkName); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Target network check failed", err.Error(), "check target.network_id and target.network_name, or pass --create-network"))
		return err
	}

	if createNetwork || claimDevices {
		serials := make([]string, 0, len(mapping))
		for _, newSerial := range mapping {
			serials = append(serials, newSerial)
		}
		sort.Strings(serials)
		if err := client.ClaimDevices(ctx, networkID, serials); err != nil {
			fmt.Fprint(os.Stderr, ui.FormatError("Failed to claim devices", err.Error(), "devices must already be in the target organization's inventory"))
			return err
		}
		ui.Success(fmt.Sprintf("Claimed %d devices", len(serials)))
	}

	fmt.Println(ui.Bold(fmt.Sprintf("Restoring %s onto %s / %s...",
		snap.SourceNetworkName, cfg.Target.OrgName, cfg.Target.NetworkName)))

	outcome, err := restore.New(client, logger).Restore(ctx, snap, networkID, mapping)
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Restore aborted", err.Error(), ""))
		return err
	}

	printOutcome(outcome)
	if outcome.TotalFailed() > 0 {
		return fmt.Errorf("%d resources failed to restore", outcome.TotalFailed())
	}
	return nil
}

// createTargetNetwork creates the target network from the snapshot's
// recorded network info, falling back to sane switch-network defaults.
func createTargetNetwork(ctx context.Context, client *meraki.Client, cfg *config.Config, snap *snapshot.Snapshot) (string, error) {
	name := cfg.Target.NetworkName
	if name == "" {
		name = snap.SourceNetworkName
	}
	body := map[string]any{
		"name":         name,
		"productTypes": []string{"switch"},
	}
	var info struct {
		ProductTypes []string `json:"productTypes"`
		TimeZone     string   `json:"timeZone"`
	}
	if len(snap.NetworkInfo) > 0 && json.Unmarshal(snap.NetworkInfo, &info) == nil {
		if len(info.ProductTypes) > 0 {
			body["productTypes"] = info.ProductTypes
		}
		if info.TimeZone != "" {
			body["timeZone"] = info.TimeZone
		}
	}
	nw, err := client.CreateNetwork(ctx, cfg.Target.OrgID, body)
	if err != nil {
		return "", err
	}
	return nw.ID, nil
}

func printOutcome(outcome *restore.Outcome) {
	fmt.Println()
	for _, cat := range outcome.Categories() {
		restored, failed, skipped := outcome.Restored[cat], outcome.Failed[cat], outcome.Skipped[cat]
		switch {
		case failed > 0:
			ui.StepFailed(cat, fmt.Sprintf("%d restored, %d failed, %d skipped", restored, failed, skipped))
		case restored == 0 && skipped > 0:
			ui.StepSkipped(cat, fmt.Sprintf("%d skipped", skipped))
		default:
			detail := fmt.Sprintf("%d restored", restored)
			if skipped > 0 {
				detail += fmt.Sprintf(", %d skipped", skipped)
			}
			ui.StepDone(cat, detail)
		}
	}

	fmt.Println()
	for _, w := range outcome.Warnings {
		ui.Warn(w)
	}
	if outcome.TotalFailed() == 0 {
		ui.Success(fmt.Sprintf("Restore complete: %d restored, %d skipped", outcome.TotalRestored(), outcome.TotalSkipped()))
	} else {
		fmt.Printf("%d restored, %d failed, %d skipped\n", outcome.TotalRestored(), outcome.TotalFailed(), outcome.TotalSkipped())
	}
}
