package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/retain/pkg/engine"
)

func snapshotCmd(configPath *string) *cobra.Command {
	var drop bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the persisted snapshot",
		Long: `Load the snapshot stored under the configured key and print every
persisted root with its node types, states and hook slots.

Examples:
  retain snapshot
  retain snapshot --config=prod.yaml
  retain snapshot --clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
			st, err := openStore(ctx, cfg.Store, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			if drop {
				if err := st.Delete(ctx, cfg.Store.Key); err != nil {
					return err
				}
				success("Cleared %s", cfg.Store.Key)
				return nil
			}

			data, err := st.Load(ctx, cfg.Store.Key)
			if err != nil {
				return err
			}
			if data == nil {
				warn("No snapshot stored under %s", cfg.Store.Key)
				return nil
			}
			s, err := engine.DecodeSnapshot(data)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatSnapshot(s))
			return nil
		},
	}

	cmd.Flags().BoolVar(&drop, "clear", false, "Delete the stored snapshot")

	return cmd
}

func formatSnapshot(s *engine.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "snapshot %s (v%d) saved %s, last root id %d\n",
		s.ID, s.Version, s.SavedAt.Format("2006-01-02 15:04:05"), s.LastID)
	for _, r := range s.Roots {
		fmt.Fprintf(&b, "\nroot %d %q in container %d\n", r.ID, r.Name, r.Container)
		for _, k := range r.Props.SortedKeys() {
			fmt.Fprintf(&b, "  %s=%v\n", k, r.Props[k])
		}
		formatNode(&b, &r.Tree, 1)
	}
	return b.String()
}

func formatNode(b *strings.Builder, n *engine.NodeRecord, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if n.Type == "" {
		b.WriteString("(null)\n")
		return
	}
	b.WriteString(n.Type)
	if n.State != nil {
		fmt.Fprintf(b, " state=%v", n.State)
	}
	for i, h := range n.Hooks {
		fmt.Fprintf(b, " hook[%d]=%v:%v", i, h.Key, h.Value)
	}
	b.WriteString("\n")
	for i := range n.Children {
		formatNode(b, &n.Children[i], depth+1)
	}
}
