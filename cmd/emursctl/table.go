package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/emurs/internal/bootcfg"
	"github.com/joshuapare/emurs/kernel/mem"
)

func init() {
	rootCmd.AddCommand(newTableCmd())
}

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Show the memory table",
		Long: `The table command validates the memory map and prints every table
entry with its permissions, kind and size.

Example:
  emursctl table --preset gba
  emursctl table -c memmap.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTable()
		},
	}
	return cmd
}

type tableEntryOutput struct {
	First       string `json:"first"`
	Last        string `json:"last"`
	Size        uint64 `json:"size"`
	Permissions string `json:"permissions"`
	Kind        string `json:"kind"`
}

type tableOutput struct {
	Entries      []tableEntryOutput `json:"entries"`
	TotalBytes   uint64             `json:"total_bytes"`
	SlabCapacity int                `json:"slab_capacity"`
	Align        uint64             `json:"align"`
}

func runTable() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out, err := describeTable(cfg)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(out)
	}

	printInfo("\nMemory Table (%d/%d entries):\n", len(out.Entries), mem.TableCapacity)
	for i, e := range out.Entries {
		printInfo("  %2d  %s-%s  %s  %-12s %s\n", i, e.First, e.Last, e.Permissions, e.Kind, formatBytes(e.Size))
	}
	printInfo("\nTotal: %s (%s bytes)\n", formatBytes(out.TotalBytes), formatNumber(out.TotalBytes))
	printInfo("Slab capacity: %d\n", out.SlabCapacity)
	printInfo("Default alignment: %d\n", out.Align)
	return nil
}

func describeTable(cfg *bootcfg.Config) (tableOutput, error) {
	entries, err := cfg.TableEntries()
	if err != nil {
		return tableOutput{}, err
	}
	out := tableOutput{SlabCapacity: cfg.SlabCapacity, Align: cfg.Align}
	for _, e := range entries {
		size := uint64(e.Range.Len())
		out.Entries = append(out.Entries, tableEntryOutput{
			First:       fmt.Sprintf("%#x", e.Range.First),
			Last:        fmt.Sprintf("%#x", e.Range.Last),
			Size:        size,
			Permissions: e.Permissions.String(),
			Kind:        e.Kind.String(),
		})
		out.TotalBytes += size
	}
	return out, nil
}
