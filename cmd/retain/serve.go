package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/retain/internal/demo"
	"github.com/vango-dev/retain/pkg/engine"
	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/inspect"
	"github.com/vango-dev/retain/pkg/vdom"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		addr  string
		fresh bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine behind the inspector",
		Long: `Run the demo types on an in-memory host and serve the inspector.

The engine state is restored from the configured store on start and saved
back on shutdown. Routes:

  GET    /roots                 list roots
  GET    /roots/{id}            describe a root's virtual tree
  DELETE /roots/{id}            destroy a root
  POST   /roots/{id}/messages   broadcast a JSON payload into a root
  GET    /stats                 painter statistics
  POST   /snapshot              save a snapshot now
  GET    /metrics               Prometheus metrics
  GET    /ws                    live stream of host mutations

Examples:
  retain serve
  retain serve --addr=:7070
  retain serve --fresh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Inspect.Addr = addr
			}
			logger := cfg.Log.NewLogger(os.Stderr)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg.Store, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			promReg := prometheus.NewRegistry()
			promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := engine.NewMetrics(
				engine.WithNamespace(cfg.Metrics.Namespace),
				engine.WithRegistry(promReg),
			)

			mem := host.NewMemory()
			screen := mem.NewScreen("main")
			eng := engine.New(mem, demo.NewRegistry(),
				engine.WithLogger(logger),
				engine.WithMetrics(metrics),
				engine.WithStore(st, cfg.Store.Key),
			)
			eng.Bind(mem)

			if err := start(ctx, eng, screen, fresh); err != nil {
				return err
			}

			loop := engine.NewLoop(64)
			srv := inspect.New(eng, loop, mem,
				inspect.WithLogger(logger),
				inspect.WithGatherer(promReg),
			)

			printBanner()
			info("inspector: http://%s", cfg.Inspect.Addr)
			info("store:     %s (%s)", cfg.Store.Driver, cfg.Store.Key)
			fmt.Println()

			go loop.Run(ctx)
			serveErr := srv.ListenAndServe(ctx, cfg.Inspect.Addr)

			// The loop has stopped with ctx; nothing else touches the engine.
			if err := eng.Save(context.Background()); err != nil {
				warn("snapshot not saved: %v", err)
			} else {
				success("Snapshot saved")
			}
			return serveErr
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from retain.yaml)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Discard the persisted snapshot instead of restoring it")

	return cmd
}

// start restores the persisted roots, or mounts the demo roots when there
// are none. Restored roots whose native elements did not survive are
// repainted from their persisted props.
func start(ctx context.Context, eng *engine.Engine, screen host.Element, fresh bool) error {
	if fresh {
		if err := eng.OnStartup(ctx); err != nil {
			return err
		}
	}
	if err := eng.Hydrate(ctx); err != nil {
		return err
	}

	ids := eng.Roots()
	for _, id := range ids {
		r, ok := eng.Root(id)
		if !ok || r.Element() != 0 {
			continue
		}
		if err := eng.UpdateRoot(id, r.Props); err != nil {
			return err
		}
	}
	if len(ids) > 0 {
		success("Restored %d roots", len(ids))
		return nil
	}

	for _, root := range []struct {
		name, typ string
		props     vdom.Props
	}{
		{"counter", "counter", vdom.Props{"title": "clicks"}},
		{"greeting", "greeting", nil},
		{"todo", "todo", nil},
	} {
		if _, err := eng.CreateRoot(screen, root.name, root.typ, root.props); err != nil {
			return err
		}
	}
	return nil
}
