package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/emurs/kernel/boot"
	"github.com/joshuapare/emurs/kernel/mem"
)

var (
	simKeepGoing bool
	simAlign     uint64
)

func init() {
	cmd := newSimulateCmd()
	cmd.Flags().BoolVar(&simKeepGoing, "keep-going", false, "Continue after an allocation fault")
	cmd.Flags().Uint64Var(&simAlign, "align", 0, "Alignment for the final free-range report (default: config align)")
	rootCmd.AddCommand(cmd)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <script>",
		Short: "Replay an allocation script against the memory map",
		Long: `The simulate command boots the allocator and replays a script of
allocations and frees, then reports live slabs, free ranges and statistics.

Script syntax (one operation per line, '#' starts a comment):
  alloc <name> <size> [align]
  free <name>

Example:
  emursctl simulate boot.script --preset gba
  emursctl simulate boot.script -c memmap.yaml --keep-going --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(args)
		},
	}
	return cmd
}

type stepOutput struct {
	Line  int    `json:"line"`
	Op    string `json:"op"`
	Name  string `json:"name"`
	Range string `json:"range,omitempty"`
	Error string `json:"error,omitempty"`
}

type simulateOutput struct {
	Steps      []stepOutput `json:"steps"`
	Slabs      []string     `json:"slabs"`
	Align      uint64       `json:"align"`
	FreeRanges []string     `json:"free_ranges"`
	Stats      mem.Stats    `json:"stats"`
}

func runSimulate(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	align := cfg.Align
	if simAlign != 0 {
		align = simAlign
	}
	if err := checkAlign(align); err != nil {
		return err
	}

	ops, err := parseScript(f, cfg.Align)
	if err != nil {
		return fmt.Errorf("failed to parse script: %w", err)
	}

	m, err := boot.Boot(cfg)
	if err != nil {
		return fmt.Errorf("failed to boot: %w", err)
	}
	defer m.Close()

	out, firstErr := replay(m.Allocator, ops, simKeepGoing)

	out.Align = align
	for _, s := range m.Allocator.Slabs() {
		out.Slabs = append(out.Slabs, s.Coverage.String())
	}
	for _, r := range m.Allocator.FreeRanges(uintptr(out.Align)) {
		out.FreeRanges = append(out.FreeRanges, r.String())
	}
	out.Stats = m.Allocator.Stats()

	if jsonOut {
		if err := printJSON(out); err != nil {
			return err
		}
		return firstErr
	}

	printInfo("\nSteps:\n")
	for _, s := range out.Steps {
		if s.Error != "" {
			printInfo("  %4d  %-5s %-12s FAULT %s\n", s.Line, s.Op, s.Name, s.Error)
			continue
		}
		printInfo("  %4d  %-5s %-12s %s\n", s.Line, s.Op, s.Name, s.Range)
	}
	printInfo("\nLive slabs (%d):\n", len(out.Slabs))
	for _, s := range out.Slabs {
		printInfo("  %s\n", s)
	}
	printInfo("\nFree ranges (align %d):\n", out.Align)
	for _, r := range out.FreeRanges {
		printInfo("  %s\n", r)
	}
	printStats(out.Stats)
	return firstErr
}

// replay applies ops to a, stopping at the first fault unless keepGoing.
// The returned error describes the first fault.
func replay(a *mem.Allocator, ops []scriptOp, keepGoing bool) (simulateOutput, error) {
	var out simulateOutput
	var firstErr error
	live := make(map[string]mem.Range)

	for _, op := range ops {
		step := stepOutput{Line: op.Line, Op: op.Kind, Name: op.Name}
		var err error

		switch op.Kind {
		case "alloc":
			if _, dup := live[op.Name]; dup {
				err = fmt.Errorf("name %q is already allocated", op.Name)
				break
			}
			var addr uintptr
			addr, err = a.TryAlloc(op.Layout)
			if err == nil {
				r := mem.RangeOf(addr, op.Layout.Size)
				live[op.Name] = r
				step.Range = r.String()
			}
		case "free":
			r, ok := live[op.Name]
			if !ok {
				err = fmt.Errorf("name %q is not allocated", op.Name)
				break
			}
			err = a.TryDealloc(r.First, mem.Layout{Size: r.Len(), Align: 1})
			if err == nil {
				delete(live, op.Name)
				step.Range = r.String()
			}
		}

		if err != nil {
			step.Error = err.Error()
			out.Steps = append(out.Steps, step)
			if firstErr == nil {
				firstErr = fmt.Errorf("line %d: %w", op.Line, err)
			}
			if !keepGoing {
				break
			}
			continue
		}
		out.Steps = append(out.Steps, step)
	}
	return out, firstErr
}

func printStats(st mem.Stats) {
	printInfo("\nStatistics:\n")
	printInfo("  Allocations: %s\n", formatNumber(st.AllocCalls))
	printInfo("  Frees: %s\n", formatNumber(st.FreeCalls))
	printInfo("  Faults: %s\n", formatNumber(st.Failures))
	printInfo("  In use: %s (%s bytes)\n", formatBytes(st.BytesInUse), formatNumber(st.BytesInUse))
	printInfo("  Peak: %s\n", formatBytes(st.PeakBytes))
	printInfo("  Slabs: %d/%d\n", st.LiveSlabs, st.SlabCapacity)
	printInfo("  Table: %d entries, %s\n", st.TableEntries, formatBytes(st.TableBytes))
}
