package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"aigen-index/internal/database"
	"aigen-index/internal/indexer"
	"aigen-index/internal/startup"
	"aigen-index/internal/usecases"

	"github.com/spf13/cobra"
)

func newInitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the index database or migrate it to the current schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			version, dirty, err := db.SchemaVersion()
			if err != nil {
				return fmt.Errorf("reading schema version: %w", err)
			}

			out := cmd.OutOrStdout()
			if wantJSON(out, opts.json) {
				return printJSON(out, map[string]interface{}{
					"path":          db.Path(),
					"schemaVersion": version,
					"dirty":         dirty,
				})
			}
			fmt.Fprintf(out, "Index initialized at %s\n", db.Path())
			fmt.Fprintf(out, "Schema version: %d\n", version)
			return nil
		},
	}
}

func newScanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [root...]",
		Short: "Reconcile the index with one or more directory trees",
		Long: "Scan walks each root, records its folders and images and removes\n" +
			"entries that no longer exist on disk. With no arguments the configured\n" +
			"scan roots are used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			roots := args
			if len(roots) == 0 {
				roots = cfg.ScanRoots
			}
			if len(roots) == 0 {
				return errors.New("no scan roots given and none configured")
			}

			db, err := openDatabase(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			scheduler := indexer.NewScheduler(newIndexer(db, cfg), roots, 0)
			summaries, scanErr := scheduler.RunOnce(ctx)
			if summaries == nil {
				summaries = []*indexer.Summary{}
			}

			out := cmd.OutOrStdout()
			if wantJSON(out, opts.json) {
				err = printJSON(out, summaries)
			} else {
				err = printSummaries(out, summaries)
			}
			return errors.Join(scanErr, err)
		},
	}
}

func newFoldersCmd(opts *options) *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List root folders, or the children of --parent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			var folders []database.Folder
			if cmd.Flags().Changed("parent") {
				folders, err = db.GetChildFolders(cmd.Context(), parentID)
			} else {
				folders, err = usecases.NewGetRootFolders(db).Execute(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if wantJSON(out, opts.json) {
				return printJSON(out, folders)
			}
			return printFolders(out, folders)
		},
	}
	cmd.Flags().StringVarP(&parentID, "parent", "p", "", "List the children of this folder ID")
	return cmd
}

func newImagesCmd(opts *options) *cobra.Command {
	var folderID string

	cmd := &cobra.Command{
		Use:   "images",
		Short: "List every indexed image, or the images directly in --folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			var images []database.Image
			if cmd.Flags().Changed("folder") {
				images, err = usecases.NewGetImagesByFolderID(db).Execute(cmd.Context(),
					usecases.GetImagesByFolderIDRequest{FolderID: folderID})
			} else {
				images, err = usecases.NewGetAllImages(db).Execute(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if wantJSON(out, opts.json) {
				return printJSON(out, images)
			}
			return printImages(out, images)
		},
	}
	cmd.Flags().StringVarP(&folderID, "folder", "f", "", "Only list images directly in this folder ID")
	return cmd
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if wantJSON(out, opts.json) {
				return printJSON(out, stats)
			}
			return printStats(out, stats)
		},
	}
}

func newVacuumCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "vacuum",
		Short: "Reclaim unused space in the index database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Vacuum(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Vacuum complete")
			return nil
		},
	}
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := startup.GetBuildInfo()
			out := cmd.OutOrStdout()
			if wantJSON(out, opts.json) {
				return printJSON(out, info)
			}
			return printBuildInfo(out, info)
		},
	}
}
