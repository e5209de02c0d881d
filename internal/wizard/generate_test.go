package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGenerateConfigFull(t *testing.T) {
	answers := WizardAnswers{
		SourceOrgID:       "123456",
		SourceOrgName:     "Lab Org",
		SourceNetworkID:   "N_1111",
		SourceNetworkName: "Backbone",
		TargetOrgID:       "654321",
		TargetOrgName:     "Prod Org",
		TargetNetworkID:   "N_2222",
		TargetNetworkName: "Backbone v2",
		Snapshot:          "backbone.json",
		DeviceMap:         "device-map.yml",
		LogLevel:          "debug",
	}

	out, err := GenerateConfig(answers)
	require.NoError(t, err)

	assert.Contains(t, out, `org_id: "123456"`)
	assert.Contains(t, out, "org_name: Lab Org")
	assert.Contains(t, out, `network_id: "N_2222"`)
	assert.Contains(t, out, "snapshot: backbone.json")
	assert.Contains(t, out, "device_map: device-map.yml")
	assert.Contains(t, out, "log_level: debug")
	// Keys stay in the environment unless explicitly given
	assert.NotContains(t, out, "api_key")
}

func TestGenerateConfigWithKeys(t *testing.T) {
	answers := WizardAnswers{
		SourceAPIKey: "src-key",
		TargetAPIKey: "tgt-key",
	}

	out, err := GenerateConfig(answers)
	require.NoError(t, err)

	assert.Contains(t, out, "api_key: src-key")
	assert.Contains(t, out, "api_key: tgt-key")
}

func TestGenerateConfigDefaults(t *testing.T) {
	out, err := GenerateConfig(WizardAnswers{})
	require.NoError(t, err)

	assert.Contains(t, out, "snapshot: snapshot.json")
	assert.Contains(t, out, "log_level: info")
}

func TestGenerateConfigParsesAsYAML(t *testing.T) {
	answers := WizardAnswers{
		SourceOrgID:       "123456",
		SourceOrgName:     "Lab Org",
		SourceNetworkID:   "N_1111",
		SourceNetworkName: "Backbone",
		TargetOrgID:       "654321",
		TargetOrgName:     "Prod Org",
	}

	out, err := GenerateConfig(answers)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &parsed))

	source, ok := parsed["source"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "123456", source["org_id"])
	assert.Equal(t, "Lab Org", source["org_name"])
}
