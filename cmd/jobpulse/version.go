package main

import (
	"fmt"
	rtdebug "runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// version is set with -ldflags "-X main.version=..." on release builds.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionLine())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// buildVersion is the version reported to tracing and run logs. A module
// version stamped by "go install" is used when no -X value was given.
func buildVersion() string {
	bi, _ := rtdebug.ReadBuildInfo()
	return resolveVersion(version, bi)
}

func versionLine() string {
	bi, _ := rtdebug.ReadBuildInfo()
	return formatVersion(resolveVersion(version, bi), bi)
}

func resolveVersion(v string, bi *rtdebug.BuildInfo) string {
	if v != "dev" || bi == nil {
		return v
	}
	if mv := bi.Main.Version; mv != "" && mv != "(devel)" {
		return mv
	}
	return v
}

// formatVersion renders e.g. "jobpulse v1.2.0 (go1.24.2, rev 3f2a9c1d04be, modified)".
func formatVersion(v string, bi *rtdebug.BuildInfo) string {
	if bi == nil {
		return "jobpulse " + v
	}
	details := []string{bi.GoVersion}
	var rev string
	var modified bool
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if rev != "" {
		if len(rev) > 12 {
			rev = rev[:12]
		}
		details = append(details, "rev "+rev)
		if modified {
			details = append(details, "modified")
		}
	}
	return fmt.Sprintf("jobpulse %s (%s)", v, strings.Join(details, ", "))
}
