// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	m "github.com/mkhts/gorinex"
)

// Set by the linker
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Command line options shared by all commands
type cmdOpt struct {
	configFn    string
	verbose     int
	showVersion bool
	mjd         int
	outDir      string
	outFn       string
	version     string
	sys         string
	tic         bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Yesterday, the usual day to convert
func defaultMJD() int {
	return m.TimeToMJD(time.Now().UTC()) - 1
}

func newRootCmd(out io.Writer) *cobra.Command {
	var opt cmdOpt

	rootCmd := &cobra.Command{
		Use:   m.APP_NAME,
		Short: "GNSS receiver log to RINEX converter",
		Long: `Converts one day of receiver log into RINEX navigation files and
rewrites RINEX navigation files between versions 2.11 and 3.03.

Example usage:
  gorinex nav --config station.yaml --mjd 60600 rcv.log
  gorinex obs --config station.yaml --mjd 60600 --tic rcv.log
  gorinex renav --rinex-version 2 --mjd 60600 brdc2740.24n`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opt.showVersion {
				fmt.Fprintf(out, "%s %s (built %s)\n", m.APP_NAME, Version, BuildTime)
				return nil
			}
			return cmd.Help()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVarP(&opt.configFn, "config", "c", "", "Station configuration file (YAML)")
	rootCmd.PersistentFlags().CountVarP(&opt.verbose, "verbose", "v", "Verbose logging (-vv for trace)")
	rootCmd.Flags().BoolVar(&opt.showVersion, "version", false, "Show version information")

	rootCmd.AddCommand(newNavCmd(&opt), newObsCmd(&opt), newRenavCmd(&opt), newOrbitCmd(out, &opt), newFileNameCmd(out, &opt))
	return rootCmd
}

func addDayFlags(cmd *cobra.Command, opt *cmdOpt) {
	cmd.Flags().IntVarP(&opt.mjd, "mjd", "d", defaultMJD(), "Modified Julian Day of the data")
	cmd.Flags().StringVar(&opt.version, "rinex-version", "", "RINEX version of the output (2 or 3, default from config)")
}

// Configuration with the command line overrides applied
func loadConfig(opt *cmdOpt) (Config, error) {
	cfg, err := Load(opt.configFn)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if opt.version != "" {
		if err := cfg.Rinex.Version.UnmarshalText([]byte(opt.version)); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Receiver log -> navigation files
func newNavCmd(opt *cmdOpt) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nav LOGFILE",
		Short: "Write the navigation files of one day of receiver log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opt)
			if err != nil {
				return err
			}
			logger := m.NewLogger(opt.verbose)
			rx := cfg.NewReceiver()

			var lr m.LogReader = m.NewJavad(rx, logger)
			if _, err := lr.ReadLog(args[0], opt.mjd); err != nil {
				return err
			}
			rx.UpdateLeapSeconds(opt.mjd)

			rnx := cfg.NewRinex(logger)
			fn := filepath.Join(opt.outDir, m.MakeFileName(cfg.Rinex.NavPattern, opt.mjd))
			if err := rnx.WriteNavigationFile(rx, m.GPS, cfg.Rinex.Version, fn, opt.mjd); err != nil {
				return err
			}
			if rx.Constellations.Has(m.BeiDou) && rx.BeiDou.Ephemeris.Len() > 0 {
				fn := filepath.Join(opt.outDir, m.MakeFileName(cfg.Rinex.BeiDouNavPattern, opt.mjd))
				if err := rnx.WriteNavigationFile(rx, m.BeiDou, m.V3, fn, opt.mjd); err != nil {
					return err
				}
			}
			return nil
		},
	}
	addDayFlags(cmd, opt)
	cmd.Flags().StringVarP(&opt.outDir, "out-dir", "o", ".", "Output directory")
	return cmd
}

// Receiver log -> observation file
func newObsCmd(opt *cmdOpt) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "obs LOGFILE",
		Short: "Write the observation file of one day of receiver log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opt)
			if err != nil {
				return err
			}
			logger := m.NewLogger(opt.verbose)
			rx := cfg.NewReceiver()
			if _, err := m.NewJavad(rx, logger).ReadLog(args[0], opt.mjd); err != nil {
				return err
			}
			rx.UpdateLeapSeconds(opt.mjd)

			fn := opt.outFn
			if fn == "" {
				fn = m.MakeFileName(cfg.Rinex.ObsPattern, opt.mjd)
			}
			return cfg.NewRinex(logger).WriteObservationFile(&cfg.Antenna, &cfg.Counter, rx, cfg.Rinex.Version,
				fn, opt.mjd, cfg.Rinex.Interval, rx.Measurements, opt.tic)
		},
	}
	addDayFlags(cmd, opt)
	cmd.Flags().BoolVar(&opt.tic, "tic", false, "Correct code observations by the 1PPS counter reading")
	cmd.Flags().StringVarP(&opt.outFn, "out", "o", "", "Output file (default from the observation file name pattern)")
	return cmd
}

// Navigation file -> navigation file
func newRenavCmd(opt *cmdOpt) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "renav NAVFILE",
		Short: "Rewrite a navigation file in the selected RINEX version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opt)
			if err != nil {
				return err
			}
			var c m.Constellation
			if err := c.UnmarshalText([]byte(opt.sys)); err != nil {
				return err
			}
			logger := m.NewLogger(opt.verbose)
			rx := cfg.NewReceiver()
			rnx := cfg.NewRinex(logger)
			if err := rnx.ReadNavigationFile(rx, c, args[0]); err != nil {
				return err
			}
			fn := opt.outFn
			if fn == "" {
				pattern := cfg.Rinex.NavPattern
				if c == m.BeiDou {
					pattern = cfg.Rinex.BeiDouNavPattern
				}
				fn = m.MakeFileName(pattern, opt.mjd)
			}
			return rnx.WriteNavigationFile(rx, c, cfg.Rinex.Version, fn, opt.mjd)
		},
	}
	addDayFlags(cmd, opt)
	cmd.Flags().StringVarP(&opt.sys, "constellation", "s", "GPS", "Satellite system (GPS or BeiDou)")
	cmd.Flags().StringVarP(&opt.outFn, "out", "o", "", "Output file (default from the navigation file name pattern)")
	return cmd
}

// Orbit and clock of every record at its reference time
func newOrbitCmd(out io.Writer, opt *cmdOpt) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orbit NAVFILE",
		Short: "Print satellite positions and clock biases of a navigation file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c m.Constellation
			if err := c.UnmarshalText([]byte(opt.sys)); err != nil {
				return err
			}
			logger := m.NewLogger(opt.verbose)
			rx := m.NewReceiver()
			if err := m.NewRinex(logger).ReadNavigationFile(rx, c, args[0]); err != nil {
				return err
			}
			switch c {
			case m.GPS:
				for _, ed := range rx.GPS.Ephemeris.All() {
					printOrbit(out, fmt.Sprintf("G%02d", ed.SVN), ed.Toe, ed.SatPos(ed.Toe, 0), ed.ClockBias(ed.Toe))
				}
			case m.BeiDou:
				for _, ed := range rx.BeiDou.Ephemeris.All() {
					printOrbit(out, fmt.Sprintf("C%02d", ed.SVN), ed.Toe, ed.SatPos(ed.Toe, 0), ed.A0)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opt.sys, "constellation", "s", "GPS", "Satellite system (GPS or BeiDou)")
	return cmd
}

func printOrbit(out io.Writer, sat string, toe float64, p r3.Vec, dts float64) {
	fmt.Fprintf(out, "%s %8.0f %15.3f %15.3f %15.3f %12.3f %15.6e\n", sat, toe, p.X, p.Y, p.Z, r3.Norm(p)/1000, dts)
}

// File name pattern expansion
func newFileNameCmd(out io.Writer, opt *cmdOpt) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filename PATTERN",
		Short: "Expand a daily file name pattern such as SITEDDD0.YYn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn := m.MakeFileName(args[0], opt.mjd)
			if fn == "" {
				return fmt.Errorf("'%s' is not a file name pattern", args[0])
			}
			fmt.Fprintln(out, fn)
			return nil
		},
	}
	cmd.Flags().IntVarP(&opt.mjd, "mjd", "d", defaultMJD(), "Modified Julian Day")
	return cmd
}
