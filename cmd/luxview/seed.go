package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"luxview/internal/config"
	"luxview/internal/jsonutil"
	"luxview/internal/store"
	"luxview/internal/widget"
)

// seedKeys are the properties the kernel side writes.
var seedKeys = map[string]bool{
	widget.KeyRecommendations: true,
	widget.KeyCurrentVis:      true,
	widget.KeyIntent:          true,
	widget.KeyMessage:         true,
}

func newSeedCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <snapshot.yaml>",
		Short: "Write recommendations and the current visualization into the store",
		Long: `seed plays the kernel side: it reads a YAML snapshot with any of the keys
recommendations, current_vis, intent and message, and commits them to the
configured property store. A running widget picks the change up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := kernelConfig(v)
			if err != nil {
				return err
			}
			snap, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg, "kernel", discardLogger())
			if err != nil {
				return err
			}
			defer st.Close()
			if err := writeSnapshot(cmd.Context(), st, snap); err != nil {
				return err
			}
			keys := make([]string, 0, len(snap))
			for k := range snap {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %v\n", keys)
			return nil
		},
	}
}

// kernelConfig loads configuration for subcommands that talk to a store
// shared with a running widget, which an in-process store cannot be.
func kernelConfig(v *viper.Viper) (config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Store.Backend == config.BackendMemory {
		return config.Config{}, fmt.Errorf("the memory backend is not shared between processes; use file or redis")
	}
	return cfg, nil
}

// readSnapshot parses and validates a YAML snapshot.
func readSnapshot(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap map[string]interface{}
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	for k := range snap {
		if !seedKeys[k] {
			return nil, fmt.Errorf("snapshot %s: unknown key %q", path, k)
		}
	}
	if raw, ok := snap[widget.KeyRecommendations]; ok {
		var recs []widget.Recommendation
		if err := jsonutil.Convert(raw, &recs, "snapshot "+widget.KeyRecommendations); err != nil {
			return nil, err
		}
		for i, rec := range recs {
			if rec.Action == "" {
				return nil, fmt.Errorf("snapshot %s: recommendation %d has no action", path, i)
			}
		}
	}
	return snap, nil
}

func writeSnapshot(ctx context.Context, st store.Store, snap map[string]interface{}) error {
	for k, val := range snap {
		st.Set(k, val)
	}
	if err := st.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
