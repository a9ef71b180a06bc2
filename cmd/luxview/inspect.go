package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"luxview/internal/store"
	"luxview/internal/ui"
	"luxview/internal/widget"
)

func newInspectCmd(v *viper.Viper) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print what the widget exported and deleted",
		Long: `inspect plays the kernel side: it prints the committed _exportedVisIdxs and
deletedIndices properties. With --watch it keeps printing every change made by
other writers until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := kernelConfig(v)
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg, "inspect", discardLogger())
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if err := printProps(out, st, widget.KeyExported, widget.KeyDeleted); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			return watchProps(cmd.Context(), out, st)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep printing changes")
	return cmd
}

// watchProps prints every external change until ctx is done. The store
// callback only queues keys, so a stalled writer never holds up the
// store's goroutine or its Close.
func watchProps(ctx context.Context, w io.Writer, st store.Store) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	relay := ui.NewStoreRelay()
	unsubscribe := st.OnChange(relay.Push)
	defer unsubscribe()

	changes := make(chan store.ChangeSet)
	go relay.Run(ctx, func(msg tea.Msg) {
		select {
		case changes <- msg.(ui.StoreChangedMsg).Keys:
		case <-ctx.Done():
		}
	})
	for {
		select {
		case <-ctx.Done():
			return nil
		case cs := <-changes:
			if err := printProps(w, st, cs.Keys()...); err != nil {
				return err
			}
		}
	}
}

// printProps writes one JSON object holding the given properties.
func printProps(w io.Writer, st store.Store, keys ...string) error {
	out := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		if val, ok := st.Get(k); ok {
			out[k] = val
		} else {
			out[k] = nil
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
