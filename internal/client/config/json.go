package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/otpkeeper/internal/flagx"
)

// JsonConfig is the on-disk shape of the config file.
type JsonConfig struct {
	DataDir     string `json:"data_dir"`
	KeySource   string `json:"key_source"`
	LogFormat   string `json:"log_format"`
	LogLevel    string `json:"log_level"`
	MergePolicy string `json:"merge_policy"`
}

// parseJson overlays cfg with the non-empty values of the file given by
// -c/-config. Without that flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	jsonConfigFile := flagx.JsonConfigFlags(args)
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonConfigFile, err)
	}

	overlay(&cfg.DataDir, jc.DataDir)
	overlay(&cfg.KeySource, jc.KeySource)
	overlay(&cfg.LogFormat, jc.LogFormat)
	overlay(&cfg.LogLevel, jc.LogLevel)
	overlay(&cfg.MergePolicy, jc.MergePolicy)
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
