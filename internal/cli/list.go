package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/portal-labs/portals/internal/inventory"
	"github.com/portal-labs/portals/internal/lifecycle"
	"github.com/portal-labs/portals/internal/prompt"
	"github.com/portal-labs/portals/internal/registry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	listInstalled bool
	listAvailable bool
	listDetails   string
	listRefresh   bool
	listJSON      bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed and available portals",
	Long: `List the portals installed in the workspace and the portals offered by the
registry. Without --installed or --available both are shown.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listInstalled, "installed", "i", false, "Show installed portals")
	listCmd.Flags().BoolVarP(&listAvailable, "available", "a", false, "Show portals available in the registry")
	listCmd.Flags().StringVarP(&listDetails, "details", "d", "", "Show details for one installed portal")
	listCmd.Flags().BoolVarP(&listRefresh, "refresh", "r", false, "Refetch the registry even if the cache is fresh")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

type installedEntry struct {
	inventory.Record
	LatestVersion   string `json:"latestVersion,omitempty"`
	UpdateAvailable bool   `json:"updateAvailable"`
}

type availableEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Themes      []string `json:"themes"`
	Installed   bool     `json:"installed"`
}

type listOutput struct {
	Installed []installedEntry `json:"installed,omitempty"`
	Available []availableEntry `json:"available,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cmd, prompt.Defaults{})
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if listDetails != "" {
		return runListDetails(cmd, engine, listDetails)
	}

	showInstalled := listInstalled || !listAvailable
	showAvailable := listAvailable || !listInstalled

	var records []inventory.Record
	if showInstalled {
		if records, err = engine.Installed(ctx); err != nil {
			return err
		}
	}

	reg, regErr := engine.Available(ctx, listRefresh)
	if regErr != nil {
		if !showInstalled {
			return regErr
		}
		logger.Debug("registry unavailable", zap.Error(regErr))
		if showAvailable {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Registry unavailable: %v\n", regErr)
		}
		reg = nil
	}

	out := listOutput{}
	if showInstalled {
		out.Installed = installedEntries(records, reg)
	}
	if showAvailable && reg != nil {
		out.Available = availableEntries(reg, records)
	}

	if listJSON {
		return printJSON(cmd, out)
	}

	if showInstalled {
		if err := printInstalledTable(cmd, records, reg); err != nil {
			return err
		}
	}
	if showAvailable && reg != nil {
		if showInstalled {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return printAvailableTable(cmd, out.Available)
	}
	return nil
}

func installedEntries(records []inventory.Record, reg *registry.Registry) []installedEntry {
	entries := make([]installedEntry, 0, len(records))
	for _, r := range records {
		e := installedEntry{Record: r}
		if reg != nil {
			if desc, err := reg.Lookup(r.Name); err == nil {
				e.LatestVersion = desc.Version
				e.UpdateAvailable = r.Managed && registry.IsUpdateAvailable(r.Version, desc.Version)
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func availableEntries(reg *registry.Registry, records []inventory.Record) []availableEntry {
	installed := make(map[string]bool, len(records))
	for _, r := range records {
		installed[r.Name] = true
	}

	var entries []availableEntry
	for _, name := range reg.Names() {
		desc := reg.Portals[name]
		entries = append(entries, availableEntry{
			Name:        name,
			Description: desc.Description,
			Version:     desc.Version,
			Themes:      desc.ThemeNames(),
			Installed:   installed[name],
		})
	}
	return entries
}

func printInstalledTable(cmd *cobra.Command, records []inventory.Record, reg *registry.Registry) error {
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No portals installed yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "INSTALLED\tTHEME\tVERSION\tSIZE\tSTATUS")
	for _, e := range installedEntries(records, reg) {
		status := "ok"
		switch {
		case e.Problem != "":
			status = "invalid metadata"
		case !e.Managed:
			status = "unmanaged"
		case e.UpdateAvailable:
			status = "update available: " + e.LatestVersion
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Theme, e.Version, e.SizeHuman, status)
	}
	return w.Flush()
}

func printAvailableTable(cmd *cobra.Command, entries []availableEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "The registry lists no portals.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "AVAILABLE\tVERSION\tTHEMES\tDESCRIPTION")
	for _, e := range entries {
		name := e.Name
		if e.Installed {
			name += " *"
		}
		version := e.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, version, strings.Join(e.Themes, ", "), e.Description)
	}
	return w.Flush()
}

func runListDetails(cmd *cobra.Command, engine *lifecycle.Engine, name string) error {
	d, err := engine.Details(cmd.Context(), name)
	if err != nil {
		return err
	}
	if listJSON {
		return printJSON(cmd, d)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %s:\t%s\n", label, value)
		}
	}

	fmt.Fprintln(w, d.Name)
	row("Description", d.Description)
	row("Path", d.Path)
	if !d.Managed {
		row("Status", "not managed (no metadata file)")
	}
	row("Problem", d.Problem)
	row("Theme", d.Theme)
	row("Source", d.Repo)

	version := d.Version
	if d.UpdateAvailable {
		version += fmt.Sprintf(" (update available: %s)", d.LatestVersion)
	}
	row("Version", version)
	row("Previous", d.PreviousVersion)
	if !d.InstalledAt.IsZero() {
		row("Installed", d.InstalledAt.Local().Format(time.DateTime))
	}
	if d.UpdatedAt != nil {
		row("Updated", d.UpdatedAt.Local().Format(time.DateTime))
	}
	row("Size", d.SizeHuman)
	if d.InWorkspace {
		row("Workspace", "listed in package.json")
	} else {
		row("Workspace", "not listed in package.json")
	}
	if d.Port > 0 {
		row("Port", fmt.Sprint(d.Port))
	}
	row("Themes", strings.Join(d.Themes, ", "))
	row("Last backup", d.BackupLocation)
	for i, b := range d.Backups {
		label := ""
		if i == 0 {
			label = "Backups:"
		}
		fmt.Fprintf(w, "  %s\t%s (%s)\n", label, b.Path, b.CreatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
