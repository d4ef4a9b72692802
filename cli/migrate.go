package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"picky/item"
	"picky/store"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	var fromDir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy item collections from JSON files into the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), *configPath, fromDir)
		},
	}
	cmd.Flags().StringVar(&fromDir, "from", "data",
		"source data directory of JSON collection files")
	return cmd
}

func runMigrate(ctx context.Context, configPath, fromDir string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	src, err := store.NewJSONFileStore(fromDir, logger)
	if err != nil {
		return fmt.Errorf("open source data dir %s: %w", fromDir, err)
	}
	dst, err := store.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create target store (backend=%s): %w", cfg.Backend, err)
	}
	defer dst.Close()

	for _, kind := range item.Kinds() {
		docs, err := src.List(ctx, kind)
		if err != nil {
			return fmt.Errorf("read %s items: %w", kind, err)
		}
		migrated := 0
		for _, doc := range docs {
			id, _ := doc[item.FieldID].(string)
			if id == "" {
				logger.Warn("skipping record without id", "kind", kind)
				continue
			}
			if err := dst.Put(ctx, kind, id, doc); err != nil {
				return fmt.Errorf("write %s item %s: %w", kind, id, err)
			}
			migrated++
		}
		logger.Info("collection migrated",
			"kind", kind, "migrated", migrated, "total", len(docs))
	}
	return nil
}
