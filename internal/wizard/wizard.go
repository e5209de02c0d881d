package wizard

import (
	"strings"

	"github.com/charmbracelet/huh"
)

// Run executes the interactive wizard and returns the user's answers.
func Run(detection DetectionResult) (*WizardAnswers, error) {
	answers := &WizardAnswers{
		Snapshot: "snapshot.json",
		LogLevel: "info",
	}
	if len(detection.Snapshots) > 0 {
		answers.Snapshot = detection.Snapshots[0]
	}
	if len(detection.DeviceMaps) > 0 {
		answers.DeviceMap = detection.DeviceMaps[0]
	}

	var groups []*huh.Group

	// Step 1: source tenant
	sourceFields := []huh.Field{}
	if detection.SourceKeyInEnv {
		sourceFields = append(sourceFields, huh.NewNote().
			Title("Source API key").
			Description("MERAKI_SOURCE_API_KEY is set; it will be used."))
	} else {
		sourceFields = append(sourceFields, huh.NewInput().
			Title("Source Dashboard API key").
			Description("Leave empty to set MERAKI_SOURCE_API_KEY later").
			EchoMode(huh.EchoModePassword).
			Value(&answers.SourceAPIKey))
	}
	sourceFields = append(sourceFields,
		huh.NewInput().
			Title("Source organization ID").
			Value(&answers.SourceOrgID),
		huh.NewInput().
			Title("Source organization name").
			Description("Cross-checked against the ID before every run").
			Value(&answers.SourceOrgName),
		huh.NewInput().
			Title("Source network ID").
			Value(&answers.SourceNetworkID),
		huh.NewInput().
			Title("Source network name").
			Value(&answers.SourceNetworkName),
	)
	groups = append(groups, huh.NewGroup(sourceFields...))

	// Step 2: target tenant
	targetFields := []huh.Field{}
	if detection.TargetKeyInEnv {
		targetFields = append(targetFields, huh.NewNote().
			Title("Target API key").
			Description("MERAKI_TARGET_API_KEY is set; it will be used."))
	} else {
		targetFields = append(targetFields, huh.NewInput().
			Title("Target Dashboard API key").
			Description("Leave empty to set MERAKI_TARGET_API_KEY later").
			EchoMode(huh.EchoModePassword).
			Value(&answers.TargetAPIKey))
	}
	targetFields = append(targetFields,
		huh.NewInput().
			Title("Target organization ID").
			Value(&answers.TargetOrgID),
		huh.NewInput().
			Title("Target organization name").
			Value(&answers.TargetOrgName),
		huh.NewInput().
			Title("Target network ID").
			Description("Leave empty if you will use 'restore --create-network'").
			Value(&answers.TargetNetworkID),
		huh.NewInput().
			Title("Target network name").
			Value(&answers.TargetNetworkName),
	)
	groups = append(groups, huh.NewGroup(targetFields...))

	// Step 3: files
	snapshotDesc := "Where 'capture' writes and 'restore' reads"
	if len(detection.Snapshots) > 0 {
		snapshotDesc += "\n\nFound in this directory:\n  " + strings.Join(detection.Snapshots, "\n  ")
	}
	groups = append(groups, huh.NewGroup(
		huh.NewInput().
			Title("Snapshot file").
			Description(snapshotDesc).
			Value(&answers.Snapshot),
		huh.NewInput().
			Title("Device map file (optional)").
			Description("YAML mapping old serials to replacement serials; empty means same hardware").
			Value(&answers.DeviceMap),
		huh.NewSelect[string]().
			Title("Log level").
			Options(
				huh.NewOption("Info", "info"),
				huh.NewOption("Debug — every API call", "debug"),
				huh.NewOption("Warn — problems only", "warn"),
			).
			Value(&answers.LogLevel),
	))

	form := huh.NewForm(groups...)
	if err := form.Run(); err != nil {
		return nil, err
	}

	return answers, nil
}
