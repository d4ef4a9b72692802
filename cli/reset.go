package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"picky/item"
	"picky/store"
)

func newResetCmd(configPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every item of every collection from the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete data without --yes")
			}
			return runReset(cmd.Context(), *configPath)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion of all data")
	return cmd
}

func runReset(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	st, err := store.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create store (backend=%s): %w", cfg.Backend, err)
	}
	defer st.Close()

	for _, kind := range item.Kinds() {
		docs, err := st.List(ctx, kind)
		if err != nil {
			return fmt.Errorf("list %s items: %w", kind, err)
		}
		deleted := 0
		for _, doc := range docs {
			id, _ := doc[item.FieldID].(string)
			if id == "" {
				continue
			}
			err := st.Delete(ctx, kind, id)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("delete %s item %s: %w", kind, id, err)
			}
			deleted++
		}
		logger.Info("collection reset", "kind", kind, "deleted", deleted)
	}
	return nil
}
