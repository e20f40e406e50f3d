package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/retain/internal/config"
	"github.com/vango-dev/retain/internal/demo"
	"github.com/vango-dev/retain/pkg/engine"
	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

func demoCmd() *cobra.Command {
	var (
		clicks  int
		items   []string
		showOps bool
		level   string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Mount the demo types on an in-memory host",
		Long: `Mount a counter, a greeting and a todo list on an in-memory host,
simulate some input, and print the resulting native tree together with
the painter's statistics.

Examples:
  retain demo
  retain demo --clicks=5 --item=milk --item=eggs
  retain demo --ops`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.LogConfig{Level: level, Format: "text"}.NewLogger(os.Stderr)

			mem := host.NewMemory()
			screen := mem.NewScreen("main")
			eng := engine.New(mem, demo.NewRegistry(), engine.WithLogger(logger))
			eng.Bind(mem)

			counter, err := eng.CreateRoot(screen, "counter", "counter", vdom.Props{"title": "clicks"})
			if err != nil {
				return err
			}
			if _, err := eng.CreateRoot(screen, "greeting", "greeting", nil); err != nil {
				return err
			}
			todo, err := eng.CreateRoot(screen, "todo", "todo", nil)
			if err != nil {
				return err
			}

			mem.ResetOps()
			eng.ResetStats()

			if r, ok := eng.Root(counter); ok {
				if btn, ok := host.ChildNamed(mem, r.Element(), "increment"); ok {
					for range clicks {
						mem.Emit(host.Event{Type: "click", Element: btn})
					}
				}
			}
			if r, ok := eng.Root(todo); ok {
				if entry, ok := host.ChildNamed(mem, r.Element(), "entry"); ok {
					for _, item := range items {
						mem.Emit(host.Event{Type: "text_changed", Element: entry, Data: map[string]any{"text": item}})
					}
				}
			}

			fmt.Print(mem.Dump(screen))
			fmt.Println()
			if showOps {
				for _, op := range mem.Ops() {
					info("%-7s el=%d key=%s value=%v", op.Kind, op.Element, op.Key, op.Value)
				}
				fmt.Println()
			}
			stats, _ := json.Marshal(eng.Stats())
			success("%d host mutations %s", len(mem.Ops()), stats)
			return nil
		},
	}

	cmd.Flags().IntVar(&clicks, "clicks", 3, "Number of clicks on the counter")
	cmd.Flags().StringArrayVar(&items, "item", []string{"milk"}, "Todo entries to add (repeatable)")
	cmd.Flags().BoolVar(&showOps, "ops", false, "Print every host mutation")
	cmd.Flags().StringVar(&level, "log-level", "warn", "Log level: debug, info, warn or error")

	return cmd
}
