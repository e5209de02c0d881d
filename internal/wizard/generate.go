package wizard

import (
	"bytes"
	"text/template"
)

// WizardAnswers holds all user responses from the wizard.
type WizardAnswers struct {
	// Source tenant
	SourceAPIKey      string
	SourceOrgID       string
	SourceOrgName     string
	SourceNetworkID   string
	SourceNetworkName string

	// Target tenant
	TargetAPIKey      string
	TargetOrgID       string
	TargetOrgName     string
	TargetNetworkID   string
	TargetNetworkName string

	// Files
	Snapshot  string
	DeviceMap string

	LogLevel string
}

const configTemplate = `# meraki-migration configuration
# API keys are best kept out of this file: set MERAKI_SOURCE_API_KEY and
# MERAKI_TARGET_API_KEY in the environment instead.

source:
{{- if .SourceAPIKey }}
  api_key: {{ .SourceAPIKey }}
{{- end }}
  org_id: "{{ .SourceOrgID }}"
  org_name: {{ .SourceOrgName }}
  network_id: "{{ .SourceNetworkID }}"
  network_name: {{ .SourceNetworkName }}

target:
{{- if .TargetAPIKey }}
  api_key: {{ .TargetAPIKey }}
{{- end }}
  org_id: "{{ .TargetOrgID }}"
  org_name: {{ .TargetOrgName }}
{{- if .TargetNetworkID }}
  network_id: "{{ .TargetNetworkID }}"
{{- end }}
{{- if .TargetNetworkName }}
  network_name: {{ .TargetNetworkName }}
{{- end }}

snapshot: {{ .Snapshot }}
{{- if .DeviceMap }}
device_map: {{ .DeviceMap }}
{{- end }}
log_level: {{ .LogLevel }}
`

// GenerateConfig renders the YAML config from wizard answers.
func GenerateConfig(answers WizardAnswers) (string, error) {
	// Set defaults
	if answers.Snapshot == "" {
		answers.Snapshot = "snapshot.json"
	}
	if answers.LogLevel == "" {
		answers.LogLevel = "info"
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, answers); err != nil {
		return "", err
	}

	return buf.String(), nil
}
