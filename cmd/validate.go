package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/asipanicisco/meraki-migration/internal/config"
	"github.com/asipanicisco/meraki-migration/internal/meraki"
	"github.com/asipanicisco/meraki-migration/internal/snapshot"
	"github.com/asipanicisco/meraki-migration/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate your migration.yml configuration",
	Long: `Check that both tenants are reachable with the configured API keys, that
organization and network names match their IDs, and that the snapshot and
device map files, if configured, are readable.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to load config", err.Error(), "run 'meraki-migration init' to create a config file"))
		return err
	}

	fmt.Println(ui.Bold("Validating migration.yml..."))

	logger := newLogger(cfg)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	passed := 0
	failed := 0
	check := func(field string, err error, okDetail, suggestion string) {
		if err == nil {
			ui.ValidationOK(field, okDetail)
			passed++
		} else {
			ui.ValidationErr(field, err.Error(), suggestion)
			failed++
		}
	}

	validateTenant := func(label string, tenant config.Tenant, envVar string) {
		if tenant.APIKey == "" {
			ui.ValidationErr(label+".api_key", "not set", "set "+envVar+" or "+label+".api_key in migration.yml")
			failed++
			return
		}
		ui.ValidationOK(label+".api_key", "present")
		passed++

		client := newClient(cfg, tenant.APIKey, logger)
		check(label+".org", client.VerifyOrganization(ctx, tenant.OrgID, tenant.OrgName),
			fmt.Sprintf("%s (%s)", tenant.OrgName, tenant.OrgID), "check the org ID and name, and that the key can reach this org")
		if tenant.NetworkID != "" {
			check(label+".network", verifySwitchNetwork(ctx, client, tenant),
				fmt.Sprintf("%s (%s)", tenant.NetworkName, tenant.NetworkID), "check the network ID and name")
		} else {
			ui.ValidationErr(label+".network_id", "not set", "set it, or use 'restore --create-network' for the target")
			failed++
		}
	}

	validateTenant("source", cfg.Source, "MERAKI_SOURCE_API_KEY")
	validateTenant("target", cfg.Target, "MERAKI_TARGET_API_KEY")

	if cfg.DeviceMap != "" {
		mapping, err := config.LoadDeviceMap(cfg.DeviceMap)
		check("device_map", err, fmt.Sprintf("%d serial mappings", len(mapping)), "the device map is YAML: old_serial: new_serial")
	}
	if cfg.Snapshot != "" {
		if _, err := os.Stat(cfg.Snapshot); err == nil {
			snap, err := snapshot.Load(cfg.Snapshot)
			detail := ""
			if err == nil {
				detail = fmt.Sprintf("%d devices, captured %s", len(snap.Devices), snap.Timestamp.Format("2006-01-02 15:04"))
			}
			check("snapshot", err, detail, "re-run 'meraki-migration capture'")
		}
	}

	fmt.Println()
	if failed == 0 {
		ui.Success(fmt.Sprintf("%d checks passed, 0 errors", passed))
		return nil
	}
	fmt.Printf("%d checks passed, %d errors\n", passed, failed)
	return fmt.Errorf("%d validation errors", failed)
}

// verifySwitchNetwork checks ID, name, and that the network actually carries
// switching (restores onto a non-switch network skip most categories).
func verifySwitchNetwork(ctx context.Context, client *meraki.Client, tenant config.Tenant) error {
	if err := client.VerifyNetwork(ctx, tenant.NetworkID, tenant.NetworkName); err != nil {
		return err
	}
	nw, err := client.GetNetwork(ctx, tenant.NetworkID)
	if err != nil {
		return err
	}
	if !nw.HasProductType("switch") {
		return fmt.Errorf("network %s has no switch product", tenant.NetworkID)
	}
	return nil
}
