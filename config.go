package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

type Config struct {
	ContentDir      string `mapstructure:"CONTENT_DIR"`
	GpxDir          string `mapstructure:"GPX_DIR"`
	MapsDir         string `mapstructure:"MAPS_DIR"`
	MapRef          string `mapstructure:"MAP_REF"`
	MapStyle        string `mapstructure:"STYLE"`
	TileCacheDir    string `mapstructure:"TILE_CACHE_DIR"`
	UserAgent       string `mapstructure:"USER_AGENT"`
	Workers         int    `mapstructure:"WORKERS"`
	Preview         bool   `mapstructure:"PREVIEW"`
	PathColor       string `mapstructure:"PATH_COLOR"`
	GlobalStatsFile string `mapstructure:"GLOBAL_STATS"`
}

// loadConfig reads TRACKMAP_* environment variables on top of the defaults.
func loadConfig() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRACKMAP")
	v.AutomaticEnv()
	v.SetDefault("CONTENT_DIR", "src/content/hikes")
	v.SetDefault("GPX_DIR", "src/content/assets/gpxs")
	v.SetDefault("MAPS_DIR", "src/content/assets/maps")
	v.SetDefault("MAP_REF", "./src/content/assets/maps")
	v.SetDefault("STYLE", "default")
	v.SetDefault("TILE_CACHE_DIR", "")
	v.SetDefault("USER_AGENT", defaultUserAgent)
	v.SetDefault("WORKERS", runtime.NumCPU())
	v.SetDefault("PREVIEW", false)
	v.SetDefault("PATH_COLOR", "#2e7d46")
	v.SetDefault("GLOBAL_STATS", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read configuration: %w", err)
	}
	return cfg, nil
}
