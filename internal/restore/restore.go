package restore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/asipanicisco/meraki-migration/internal/meraki"
	"github.com/asipanicisco/meraki-migration/internal/snapshot"
)

// Restorer replays a snapshot onto a target network in dependency order,
// rewriting server-assigned identifiers through run-scoped translation
// tables as it goes. Resource-scoped failures are accounted and skipped;
// only losing access to the target aborts the run.
type Restorer struct {
	Client *meraki.Client
	Logger hclog.Logger

	newSecret func() string // test hook
}

// New returns a Restorer.
func New(client *meraki.Client, logger hclog.Logger) *Restorer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Restorer{
		Client: client,
		Logger: logger,
		newSecret: func() string {
			return "REPLACE-ME-" + uuid.NewString()
		},
	}
}

// run carries the per-run state: ledger, translation tables, the target
// network, and the old→new serial mapping. Created at run start, discarded
// at run end.
type run struct {
	*Restorer
	ledger    *Ledger
	tables    *Tables
	networkID string
	target    *meraki.Network
	mapping   map[string]string
}

// Restore replays the snapshot onto targetNetworkID. deviceMapping maps old
// device serials (as recorded in the snapshot) to the serials claimed on
// the target. The run always completes with an Outcome unless access to the
// target is lost entirely.
func (r *Restorer) Restore(ctx context.Context, snap *snapshot.Snapshot, targetNetworkID string, deviceMapping map[string]string) (*Outcome, error) {
	r.Logger.Info("starting restore", "targetNetwork", targetNetworkID, "sourceNetwork", snap.SourceNetworkName)

	// The target network's product types gate product-specific restores
	// (MTU); failing to fetch them means the target cannot be trusted.
	target, err := r.Client.GetNetwork(ctx, targetNetworkID)
	if err != nil {
		return nil, fmt.Errorf("fetching target network: %w", err)
	}

	rn := &run{
		Restorer:  r,
		ledger:    NewLedger(),
		tables:    NewTables(),
		networkID: targetNetworkID,
		target:    target,
		mapping:   deviceMapping,
	}

	if err := rn.restoreNetworkSettings(ctx, snap); err != nil {
		return nil, err
	}

	if len(deviceMapping) == 0 {
		rn.ledger.Warnf("no device mapping provided; device-level settings were not restored")
		r.Logger.Warn("no device mapping provided, skipping device-level settings")
	} else if err := rn.restoreDevices(ctx, snap); err != nil {
		return nil, err
	}

	outcome := rn.ledger.Outcome()
	r.Logger.Info("restore complete",
		"restored", outcome.TotalRestored(),
		"failed", outcome.TotalFailed(),
		"skipped", outcome.TotalSkipped(),
		"warnings", len(outcome.Warnings))
	for _, w := range outcome.Warnings {
		r.Logger.Warn(w)
	}
	return outcome, nil
}

// account classifies the result of one resource-scoped call. It returns a
// non-nil error only for access failures, which abort the whole run.
func (rn *run) account(category, what string, err error) error {
	if err == nil {
		rn.ledger.Restored(category)
		rn.Logger.Debug("restored", "category", category, "what", what)
		return nil
	}
	if meraki.IsAccessDenied(err) {
		return err
	}
	if meraki.IsNotApplicable(err) {
		rn.ledger.Skipped(category)
		rn.Logger.Info("not applicable", "category", category, "what", what)
		return nil
	}
	rn.ledger.Failed(category)
	rn.Logger.Error("restore failed", "category", category, "what", what, "error", err)
	return nil
}
