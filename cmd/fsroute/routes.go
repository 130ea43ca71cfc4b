package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/vango-dev/fsroute/internal/config"
	"github.com/vango-dev/fsroute/pkg/router"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

type routesFlags struct {
	pattern string
	check   bool
	json    bool
}

func routesCmd(global *globalFlags) *cobra.Command {
	var flags routesFlags

	cmd := &cobra.Command{
		Use:   "routes [dir]",
		Short: "List the route table",
		Long: `List every route of a directory, most specific first.

With --check, every file is compiled and the whole table is checked for
duplicate routes, conflicting parameter names, misplaced catch-alls and
empty parameters. All problems are reported, not only the first.

Examples:
  fsroute routes
  fsroute routes ./public --check
  fsroute routes --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			if flags.pattern != "" {
				cfg.Pattern = flags.pattern
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runRoutes(cfg, flags, global)
		},
	}

	cmd.Flags().StringVar(&flags.pattern, "pattern", "", "Glob selecting route files (default from fsroute.json)")
	cmd.Flags().BoolVar(&flags.check, "check", false, "Validate the whole route table")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print routes as JSON")

	return cmd
}

type routeJSON struct {
	Route string `json:"route"`
	File  string `json:"file"`
}

func runRoutes(cfg *config.Config, flags routesFlags, global *globalFlags) error {
	r, err := router.New(router.Options[router.File]{
		Style:   router.Named(router.StyleName(cfg.Style)),
		Pattern: cfg.Pattern,
		Logger:  newLogger(global),
	})
	if err != nil {
		return err
	}

	entries, err := r.Entries(cfg.RootPath())
	if err != nil {
		return err
	}
	router.SortBySpecificity(entries)

	if flags.check {
		if err := router.NewValidator(entries).Validate(); err != nil {
			var multi *router.MultiValidationError
			if stderrors.As(err, &multi) {
				for _, ve := range multi.Errors {
					fmt.Fprintln(os.Stderr, router.FormatValidationError(ve))
				}
				return fmt.Errorf("%d route problems in %s", len(multi.Errors), cfg.RootPath())
			}
			return err
		}
	}

	if flags.json {
		out := make([]routeJSON, len(entries))
		for i, e := range entries {
			out[i] = routeJSON{Route: "/" + e.Pattern, File: e.File}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(entries) == 0 {
		warn("No files match %q in %s", cfg.Pattern, cfg.RootPath())
		return nil
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{"/" + e.Pattern, e.File}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("ROUTE", "FILE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Println(t)
	if flags.check {
		success("%d routes, no problems", len(entries))
	} else {
		info("%d routes", len(entries))
	}
	return nil
}
