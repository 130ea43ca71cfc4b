package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go"`
	Platform  string `json:"platform"`
}

// currentBuild reports the ldflags-stamped values. Binaries built with
// "go install" carry no ldflags, so the module version stands in.
func currentBuild() buildInfo {
	b := buildInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if b.Version == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			b.Version = bi.Main.Version
		}
	}
	return b
}

func writeVersion(w io.Writer, b buildInfo, short, asJSON bool) error {
	switch {
	case short:
		_, err := fmt.Fprintln(w, b.Version)
		return err
	case asJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}

	rows := [][2]string{
		{"version", b.Version},
		{"commit", b.Commit},
		{"built", b.Date},
		{"go", b.GoVersion},
		{"platform", b.Platform},
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render(fmt.Sprintf("%-9s", r[0])), r[1]); err != nil {
			return err
		}
	}
	return nil
}

func versionCmd() *cobra.Command {
	var short, asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show build details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !short && !asJSON {
				printBanner()
			}
			return writeVersion(os.Stdout, currentBuild(), short, asJSON)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print the version alone")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print build details as JSON")

	return cmd
}
