package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/joshuapare/emurs/kernel/mem"
)

// version is stamped with -ldflags "-X main.version=..." on release builds.
var version = "dev"

type versionOutput struct {
	Version      string `json:"version"`
	Module       string `json:"module"`
	GoVersion    string `json:"go_version"`
	Revision     string `json:"revision,omitempty"`
	Modified     bool   `json:"modified,omitempty"`
	TableEntries int    `json:"table_capacity"`
	SlabCapacity int    `json:"default_slab_capacity"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := buildVersion()
		if jsonOut {
			return printJSON(out)
		}
		printInfo("emursctl %s\n", out.Version)
		printInfo("  module: %s\n", out.Module)
		printInfo("  go: %s\n", out.GoVersion)
		if out.Revision != "" {
			rev := out.Revision
			if out.Modified {
				rev += " (modified)"
			}
			printInfo("  revision: %s\n", rev)
		}
		printInfo("  memory table capacity: %d\n", out.TableEntries)
		printInfo("  default slab capacity: %d\n", out.SlabCapacity)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func buildVersion() versionOutput {
	out := versionOutput{
		Version:      version,
		Module:       "unknown",
		GoVersion:    "unknown",
		TableEntries: mem.TableCapacity,
		SlabCapacity: mem.DefaultSlabCapacity,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	if info.Main.Path != "" {
		out.Module = info.Main.Path
	}
	out.GoVersion = info.GoVersion
	if out.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		out.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Revision = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}
	return out
}
