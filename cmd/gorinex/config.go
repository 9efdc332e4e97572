// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	m "github.com/mkhts/gorinex"
)

// Station configuration
type Config struct {
	Agency   string         `yaml:"agency"`
	Observer string         `yaml:"observer"`
	Receiver ReceiverConfig `yaml:"receiver"`
	Antenna  m.Antenna      `yaml:"antenna"`
	Counter  m.Counter      `yaml:"counter"`
	Rinex    RinexConfig    `yaml:"rinex"`
}

type ReceiverConfig struct {
	Model          string          `yaml:"model"`
	Serial         string          `yaml:"serial"`
	Version        string          `yaml:"version"`
	Constellations m.Constellation `yaml:"constellations"`
	Codes          m.ObsCode       `yaml:"codes"`
	PPSOffset      float64         `yaml:"pps_offset"` // [ns]
}

type RinexConfig struct {
	Version          m.RinexVersion `yaml:"version"`
	Interval         int            `yaml:"interval"` // [s]
	ObsPattern       string         `yaml:"obs_pattern"`
	NavPattern       string         `yaml:"nav_pattern"`
	BeiDouNavPattern string         `yaml:"beidou_nav_pattern"`
}

func defaultConfig() Config {
	return Config{
		Receiver: ReceiverConfig{
			Constellations: m.GPS,
			Codes:          m.C1,
		},
		Rinex: RinexConfig{
			Version:    m.V3,
			Interval:   30,
			ObsPattern: "SITEDDD0.YYo",
			NavPattern: "SITEDDD0.YYn",
		},
	}
}

// Load the configuration file. An empty path gives the defaults.
func Load(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Receiver.Constellations == 0 {
		cfg.Receiver.Constellations = m.GPS
	}
	if cfg.Receiver.Codes == 0 {
		cfg.Receiver.Codes = m.C1
	}
	if cfg.Rinex.Interval <= 0 {
		return Config{}, fmt.Errorf("rinex.interval must be > 0")
	}
	if m.MakeFileName(cfg.Rinex.NavPattern, m.MJD_GPS0) == "" {
		return Config{}, fmt.Errorf("rinex.nav_pattern '%s' is not a file name pattern", cfg.Rinex.NavPattern)
	}
	if m.MakeFileName(cfg.Rinex.ObsPattern, m.MJD_GPS0) == "" {
		return Config{}, fmt.Errorf("rinex.obs_pattern '%s' is not a file name pattern", cfg.Rinex.ObsPattern)
	}
	if cfg.Receiver.Constellations.Has(m.BeiDou) {
		if cfg.Rinex.Version != m.V3 {
			return Config{}, fmt.Errorf("BeiDou navigation data needs rinex.version 3")
		}
		if m.MakeFileName(cfg.Rinex.BeiDouNavPattern, m.MJD_GPS0) == "" {
			return Config{}, fmt.Errorf("rinex.beidou_nav_pattern is required when BeiDou is enabled")
		}
	}
	return cfg, nil
}

// Receiver described by the configuration
func (c Config) NewReceiver() *m.Receiver {
	rx := m.NewReceiver()
	rx.ModelName = c.Receiver.Model
	rx.SerialNumber = c.Receiver.Serial
	rx.Version = c.Receiver.Version
	rx.Constellations = c.Receiver.Constellations
	rx.Codes = c.Receiver.Codes
	rx.PPSOffset = c.Receiver.PPSOffset
	return rx
}

// RINEX reader/writer described by the configuration
func (c Config) NewRinex(logger *logrus.Logger) *m.Rinex {
	r := m.NewRinex(logger)
	r.Agency = c.Agency
	r.Observer = c.Observer
	return r
}
