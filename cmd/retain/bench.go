package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/retain/internal/demo"
	"github.com/vango-dev/retain/pkg/engine"
	"github.com/vango-dev/retain/pkg/host"
	"github.com/vango-dev/retain/pkg/vdom"
)

type profile struct {
	Name     string
	Roots    int
	Events   int
	ListSize int
}

var profiles = map[string]profile{
	"fast":     {Name: "fast", Roots: 10, Events: 2_000, ListSize: 20},
	"standard": {Name: "standard", Roots: 50, Events: 20_000, ListSize: 50},
	"stress":   {Name: "stress", Roots: 200, Events: 100_000, ListSize: 100},
}

func benchCmd() *cobra.Command {
	var (
		name     string
		roots    int
		events   int
		listSize int
		jsonOut  string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure reconcile and paint cost on an in-memory host",
		Long: `Mount a number of list roots and type into them, measuring the
latency of each event from dispatch to the last native mutation, and how
many host mutations each event caused.

Examples:
  retain bench
  retain bench --profile=stress
  retain bench --roots=20 --list=200 --json=-`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := profiles[name]
			if !ok {
				return fmt.Errorf("unknown profile %q (fast, standard, stress)", name)
			}
			if roots > 0 {
				p.Roots = roots
			}
			if events > 0 {
				p.Events = events
			}
			if listSize > 0 {
				p.ListSize = listSize
			}

			report, err := runBench(p)
			if err != nil {
				return err
			}
			if jsonOut != "" {
				return writeJSON(jsonOut, report)
			}
			writeSummary(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "profile", "p", "fast", "Workload profile: fast, standard or stress")
	cmd.Flags().IntVar(&roots, "roots", 0, "Override the number of roots")
	cmd.Flags().IntVar(&events, "events", 0, "Override the number of events")
	cmd.Flags().IntVar(&listSize, "list", 0, "Override the list size per root")
	cmd.Flags().StringVar(&jsonOut, "json", "", "Write the report as JSON to a file, or - for stdout")

	return cmd
}

// registerLoad defines "load": a textbox, an echo label and a list. Typing
// echoes the text and overwrites one list item chosen by hashing it.
func registerLoad(reg *engine.Registry) {
	reg.Define(engine.Definition{
		Name: "load",
		InitialState: func(props vdom.Props) any {
			n, _ := props["size"].(int)
			items := make([]string, n)
			for i := range items {
				items[i] = "Item " + strconv.Itoa(i)
			}
			return loadState{Items: items}
		},
		Render: func(ctx *engine.RenderContext, props vdom.Props, state any) []*vdom.Node {
			s := state.(loadState)
			self := ctx.Handle()
			rows := make([]*vdom.Node, len(s.Items))
			for i, it := range s.Items {
				rows[i] = demo.Label(vdom.Props{"text": it})
			}
			return []*vdom.Node{demo.Panel(nil,
				demo.Textbox(vdom.Props{
					"name": "input",
					"on_text_changed": func(ev host.Event) {
						value, _ := ev.Data["text"].(string)
						self.SetState(engine.Updater(func(prev any) any { return prev.(loadState).with(value) }))
					},
				}),
				demo.Label(vdom.Props{"name": "echo", "text": s.Echo}),
				demo.Panel(vdom.Props{"name": "list"}, rows...),
			)}
		},
	})
}

type loadState struct {
	Echo  string
	Items []string
}

func (s loadState) with(value string) loadState {
	next := loadState{Echo: value, Items: slices.Clone(s.Items)}
	if len(next.Items) > 0 {
		next.Items[int(fnv1a32(value)%uint32(len(next.Items)))] = value
	}
	return next
}

type benchReport struct {
	Version   string       `json:"version"`
	Run       runInfo      `json:"run"`
	Workload  profile      `json:"workload"`
	LatencyUS latencyInfo  `json:"latency_us"`
	Paint     paintInfo    `json:"paint"`
	GC        gcInfo       `json:"gc"`
	Stats     engine.Stats `json:"stats"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type paintInfo struct {
	EventsPerSec    float64           `json:"events_per_sec"`
	MutationsTotal  int               `json:"mutations_total"`
	MutationsPerEvt float64           `json:"mutations_per_event"`
	Ops             map[string]uint64 `json:"ops"`
}

type gcInfo struct {
	AllocMB      float64 `json:"alloc_mb"`
	HeapLiveMB   float64 `json:"heap_live_mb"`
	NumGC        uint32  `json:"num_gc"`
	PauseTotalMS float64 `json:"pause_total_ms"`
	PauseAvgMS   float64 `json:"pause_avg_ms"`
}

func runBench(p profile) (benchReport, error) {
	if p.Roots <= 0 || p.Events <= 0 {
		return benchReport{}, fmt.Errorf("roots and events must be positive")
	}

	reg := demo.NewRegistry()
	registerLoad(reg)
	mem := host.NewMemory()
	screen := mem.NewScreen("bench")
	eng := engine.New(mem, reg, engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	eng.Bind(mem)

	inputs := make([]host.Element, p.Roots)
	for i := range inputs {
		id, err := eng.CreateRoot(screen, "load-"+strconv.Itoa(i), "load", vdom.Props{"size": p.ListSize})
		if err != nil {
			return benchReport{}, err
		}
		r, _ := eng.Root(id)
		el, ok := host.ChildNamed(mem, r.Element(), "input")
		if !ok {
			return benchReport{}, fmt.Errorf("root %d has no input", id)
		}
		inputs[i] = el
	}

	ops := make(map[string]uint64)
	mem.Observe(func(op host.Op) { ops[op.Kind.String()]++ })
	mem.ResetOps()
	eng.ResetStats()

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	samples := make([]time.Duration, 0, p.Events)
	start := time.Now()
	for i := range p.Events {
		ev := host.Event{
			Type:    "text_changed",
			Element: inputs[i%len(inputs)],
			Data:    map[string]any{"text": "v" + strconv.Itoa(i)},
		}
		t0 := time.Now()
		mem.Emit(ev)
		samples = append(samples, time.Since(t0))
		// Keep the mutation log from growing with the run.
		if i%1024 == 1023 {
			mem.ResetOps()
		}
	}
	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	return buildReport(p, samples, elapsed, ops, eng.Stats(), before, after), nil
}

func buildReport(p profile, samples []time.Duration, elapsed time.Duration, ops map[string]uint64, stats engine.Stats, before, after runtime.MemStats) benchReport {
	slices.Sort(samples)
	var mutations uint64
	for _, n := range ops {
		mutations += n
	}

	report := benchReport{
		Version: version,
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
		},
		Workload: p,
		Paint: paintInfo{
			MutationsTotal: int(mutations),
			Ops:            ops,
		},
		GC: gcInfo{
			AllocMB:      float64(after.TotalAlloc-before.TotalAlloc) / (1 << 20),
			HeapLiveMB:   float64(after.HeapAlloc) / (1 << 20),
			NumGC:        after.NumGC - before.NumGC,
			PauseTotalMS: float64(after.PauseTotalNs-before.PauseTotalNs) / 1e6,
			PauseAvgMS:   ms(avgPause(after, before)),
		},
		Stats: stats,
	}
	if len(samples) > 0 {
		report.LatencyUS = latencyInfo{
			Min: us(samples[0]),
			P50: us(percentile(samples, 0.50)),
			P95: us(percentile(samples, 0.95)),
			P99: us(percentile(samples, 0.99)),
			Max: us(samples[len(samples)-1]),
		}
		report.Paint.MutationsPerEvt = float64(mutations) / float64(len(samples))
	}
	if elapsed > 0 {
		report.Paint.EventsPerSec = float64(len(samples)) / elapsed.Seconds()
	}
	return report
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}

func avgPause(after, before runtime.MemStats) time.Duration {
	gcCount := after.NumGC - before.NumGC
	if gcCount == 0 {
		return 0
	}
	return time.Duration((after.PauseTotalNs - before.PauseTotalNs) / uint64(gcCount))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func us(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== retain paint benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Name)
	fmt.Fprintf(w, "Roots: %d\n", report.Workload.Roots)
	fmt.Fprintf(w, "Events: %d\n", report.Workload.Events)
	fmt.Fprintf(w, "List size: %d\n", report.Workload.ListSize)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Throughput: %.0f events/s\n", report.Paint.EventsPerSec)
	fmt.Fprintf(w, "Host mutations: %d (%.2f per event)\n", report.Paint.MutationsTotal, report.Paint.MutationsPerEvt)
	for _, kind := range []string{"Create", "Update", "Style", "Destroy"} {
		fmt.Fprintf(w, "  %-8s %d\n", kind+":", report.Paint.Ops[kind])
	}
	fmt.Fprintf(w, "Painter: reused %d, updated %d, created %d, rebuilt %d, destroyed %d\n",
		report.Stats.Reused, report.Stats.Updated, report.Stats.Created, report.Stats.Rebuilt, report.Stats.Destroyed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Latency (dispatch -> last host mutation):")
	fmt.Fprintf(w, "  min: %.1f µs\n", report.LatencyUS.Min)
	fmt.Fprintf(w, "  p50: %.1f µs\n", report.LatencyUS.P50)
	fmt.Fprintf(w, "  p95: %.1f µs\n", report.LatencyUS.P95)
	fmt.Fprintf(w, "  p99: %.1f µs\n", report.LatencyUS.P99)
	fmt.Fprintf(w, "  max: %.1f µs\n", report.LatencyUS.Max)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Go runtime / GC:")
	fmt.Fprintf(w, "  alloc:     %.2f MB\n", report.GC.AllocMB)
	fmt.Fprintf(w, "  heap_live: %.2f MB\n", report.GC.HeapLiveMB)
	fmt.Fprintf(w, "  num_gc:    %d\n", report.GC.NumGC)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (total)\n", report.GC.PauseTotalMS)
	fmt.Fprintf(w, "  gc_pause:  %.2f ms (avg)\n", report.GC.PauseAvgMS)
}

func writeJSON(path string, report benchReport) error {
	var out io.Writer
	if path == "-" {
		out = os.Stdout
	} else {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func fnv1a32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	var h uint32 = offset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
