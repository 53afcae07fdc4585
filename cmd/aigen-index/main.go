package main

import (
	"fmt"
	"os"

	"aigen-index/internal/database"
	"aigen-index/internal/indexer"
	"aigen-index/internal/logging"
	"aigen-index/internal/media"
	"aigen-index/internal/startup"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds the persistent flags shared by every command.
type options struct {
	configFile string
	logLevel   string
	json       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "aigen-index",
		Short:        "Index folders of generated images and their metadata",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "TOML config file (default $"+startup.ConfigFileEnv+")")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Always print JSON, even on a terminal")

	rootCmd.AddCommand(newInitCmd(opts))
	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newFoldersCmd(opts))
	rootCmd.AddCommand(newImagesCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newVacuumCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))

	return rootCmd
}

// loadConfig reads the configuration and applies the --log-level override.
func loadConfig(opts *options) (*startup.Config, error) {
	cfg, err := startup.Load(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.logLevel != "" {
		if _, ok := logging.ParseLevel(opts.logLevel); !ok {
			return nil, fmt.Errorf("unknown log level %q", opts.logLevel)
		}
		cfg.LogLevel = opts.logLevel
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logging.SetLevel(level)

	return cfg, nil
}

// openDatabase prepares the database directory and opens the index.
// The caller must Close the returned Database.
func openDatabase(cmd *cobra.Command, cfg *startup.Config) (*database.Database, error) {
	if err := cfg.PrepareDatabaseDir(); err != nil {
		return nil, err
	}
	db, err := database.New(cmd.Context(), cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	return db, nil
}

// newIndexer builds an Indexer over db using the extraction settings in cfg.
func newIndexer(db *database.Database, cfg *startup.Config) *indexer.Indexer {
	extractorConfig := media.DefaultExtractorConfig()
	extractorConfig.VerifyDecode = cfg.VerifyDecode

	indexerConfig := indexer.DefaultConfig()
	indexerConfig.SkipHidden = cfg.SkipHidden
	indexerConfig.Workers = cfg.ExtractWorkers
	indexerConfig.DecodeBound = cfg.VerifyDecode

	return indexer.New(db, media.NewExtractor(extractorConfig), indexerConfig)
}
