package threshold

import (
	"errors"
	"io/ioutil"
	"path/filepath"

	"github.com/veritrack/platform/pkg/common/models"
	"gopkg.in/yaml.v3"
)

type Bound struct {
	Metric   string  `yaml:"metric" json:"metric"`
	Low      float64 `yaml:"low" json:"low"`
	High     float64 `yaml:"high" json:"high"`
	Severity string  `yaml:"severity" json:"severity"`
}

type BoundsConfig struct {
	Bounds []Bound `yaml:"bounds" json:"bounds"`
}

// LoadBounds reads the global threshold defaults from a YAML file. When no
// path is configured, or the file is unreadable or invalid, the compiled-in
// table is returned so seeding always has something to work with.
func LoadBounds(path string) (BoundsConfig, error) {
	if path == "" {
		return DefaultBounds(), nil
	}
	content, err := ioutil.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultBounds(), err
	}

	var cfg BoundsConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return DefaultBounds(), err
	}

	if len(cfg.Bounds) == 0 {
		return DefaultBounds(), errors.New("no threshold bounds configured")
	}

	return cfg, nil
}

func DefaultBounds() BoundsConfig {
	return BoundsConfig{Bounds: []Bound{
		{Metric: "heart_rate", Low: 60, High: 100, Severity: models.SeverityHigh},
		{Metric: "temperature", Low: 36.0, High: 37.8, Severity: models.SeverityMedium},
		{Metric: "systolic", Low: 90, High: 140, Severity: models.SeverityMedium},
		{Metric: "diastolic", Low: 60, High: 90, Severity: models.SeverityMedium},
		{Metric: "stress", Low: 0, High: 80, Severity: models.SeverityLow},
	}}
}
