// Package cmd implements the gilts command-line tool: data collection,
// yield-to-maturity calculations, bond ladder construction and yield
// curve reporting, all against a shared universe of DMO gilt data.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"benritz/gilts/internal/calendar"
	"benritz/gilts/internal/prices"
	"benritz/gilts/internal/rpi"
	"benritz/gilts/internal/universe"
)

var (
	cfgFile    string
	verbosity  string
	universeFl string
	pricesFl   string
	rpiStart   string
	rpiValues  []float64
)

var rootCmd = &cobra.Command{
	Use:   "gilts",
	Short: "Price, ladder and curve UK gilts",
	Long: `gilts collects DMO gilt reference data, prices individual gilts,
builds tax-aware cash-flow ladders against a withdrawal schedule and
reports maturity/yield curves.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(verbosity)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", verbosity, err)
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return nil
	},
}

// Execute runs the root command, wiring config and logging before any
// subcommand body runs.
func Execute() error {
	cobra.OnInitialize(initConfig)
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.gilts.yaml)")
	rootCmd.PersistentFlags().StringVar(&verbosity, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&universeFl, "universe", "", "path to a DMO gilt XML or CSV file")
	rootCmd.PersistentFlags().StringVar(&pricesFl, "prices", "", "path to a closing-prices CSV file")
	rootCmd.PersistentFlags().StringVar(&rpiStart, "rpi-start", "2015-01", "RPI series start month (YYYY-MM)")
	rootCmd.PersistentFlags().Float64SliceVar(&rpiValues, "rpi", nil, "RPI index values, one per month from rpi-start")

	viper.BindPFlag("universe", rootCmd.PersistentFlags().Lookup("universe"))
	viper.BindPFlag("prices", rootCmd.PersistentFlags().Lookup("prices"))
	viper.BindPFlag("rpi-start", rootCmd.PersistentFlags().Lookup("rpi-start"))
	viper.BindPFlag("rpi", rootCmd.PersistentFlags().Lookup("rpi"))

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(ytmCmd)
	rootCmd.AddCommand(ladderCmd)
	rootCmd.AddCommand(curveCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".gilts")
	}

	viper.SetEnvPrefix("GILTS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("loaded config file")
	}
}

func openHolidays() *calendar.Holidays {
	now := time.Now()
	return calendar.NewHolidays(calendar.UKBankHolidays(now.Year()-5, now.Year()+60))
}

func openRPISeries() (*rpi.Series, error) {
	values := viper.GetFloat64Slice("rpi")
	if len(values) == 0 {
		return nil, nil
	}
	start := viper.GetString("rpi-start")
	t, err := time.Parse("2006-1", start)
	if err != nil {
		return nil, fmt.Errorf("invalid rpi-start %q: %w", start, err)
	}
	return rpi.NewSeries(t.Year(), t.Month(), values), nil
}

func openUniverse() (*universe.Issued, error) {
	path := viper.GetString("universe")
	if path == "" {
		return nil, fmt.Errorf("a --universe file is required")
	}

	holidays := openHolidays()
	rpiSeries, err := openRPISeries()
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return universe.ParseCSV(f, rpiSeries, holidays)
	}

	return universe.ParseXML(path, rpiSeries, holidays)
}

func openPriceBook() (*prices.PriceBook, error) {
	path := viper.GetString("prices")
	if path == "" {
		return nil, fmt.Errorf("a --prices file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return prices.LoadClosingPrices(f)
}
