package wizard

import (
	"os"
	"path/filepath"
	"sort"
)

// DetectionResult holds what was auto-detected on the system.
type DetectionResult struct {
	SourceKeyInEnv bool
	TargetKeyInEnv bool
	Snapshots      []string // candidate snapshot files in the working directory
	DeviceMaps     []string // candidate device map files
}

// Detector abstracts environment and filesystem lookups for testing.
type Detector interface {
	Getenv(name string) string
	Stat(path string) (os.FileInfo, error)
	Glob(pattern string) ([]string, error)
}

// OSDetector uses the real OS for detection.
type OSDetector struct{}

func (OSDetector) Getenv(name string) string { return os.Getenv(name) }
func (OSDetector) Stat(path string) (os.FileInfo, error) { return os.Stat(path) }
func (OSDetector) Glob(pattern string) ([]string, error) { return filepath.Glob(pattern) }

// Detect scans the environment for API keys and migration artifacts.
func Detect(d Detector) DetectionResult {
	if d == nil {
		d = OSDetector{}
	}

	result := DetectionResult{
		SourceKeyInEnv: d.Getenv("MERAKI_SOURCE_API_KEY") != "",
		TargetKeyInEnv: d.Getenv("MERAKI_TARGET_API_KEY") != "",
	}

	// Snapshot files from earlier captures
	if matches, err := d.Glob("*.json"); err == nil {
		sort.Strings(matches)
		result.Snapshots = matches
	}

	// Device map candidates by conventional name
	mapNames := []string{
		"device-map.yml",
		"device-map.yaml",
		"devices.yml",
		"devices.yaml",
	}
	for _, name := range mapNames {
		if _, err := d.Stat(name); err == nil {
			result.DeviceMaps = append(result.DeviceMaps, name)
		}
	}

	return result
}
