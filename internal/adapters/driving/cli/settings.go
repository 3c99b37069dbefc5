package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change configuration",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Long:  `Prints the settings assembled from defaults, the config file and the environment. Secrets are masked.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Write a key to the config file",
	Long: `Writes a single key to the config file, for example:

  docugraph settings set neo4j.uri bolt://localhost:7687
  docugraph settings set crawl.workers 4
  docugraph settings set relational.tables api_site,api_study`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Ping the configured embedding provider",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	secret := func(v string) string {
		if v == "" {
			return mutedStyle.Render("(not set)")
		}
		return maskAPIKey(v)
	}
	orUnset := func(v string) string {
		if v == "" {
			return mutedStyle.Render("(not set)")
		}
		return v
	}

	cmd.Println(box("Confluence",
		field("Base URL", orUnset(s.Confluence.BaseURL)),
		field("Token", secret(s.Confluence.AccessToken)),
		field("Space", orUnset(s.Confluence.SpaceKey)),
		field("Page limit", s.Confluence.PageLimit),
		field("Workers", s.Crawl.Workers),
	))
	cmd.Println(box("Graph store",
		field("URI", s.Store.URI),
		field("User", orUnset(s.Store.Username)),
		field("Password", secret(s.Store.Password)),
		field("Database", orUnset(s.Store.Database)),
	))
	cmd.Println(box("Embedding",
		field("Provider", s.Embedding.Provider.Description()),
		field("Model", s.Embedding.Model),
		field("Dimensions", s.Embedding.Dimensions),
		field("Base URL", orUnset(s.Embedding.BaseURL)),
		field("API key", secret(s.Embedding.APIKey)),
		field("Batch size", s.Backfill.BatchSize),
	))
	cmd.Println(box("Relational",
		field("Driver", s.Relational.Driver),
		field("DSN", secret(s.Relational.DSN)),
		field("Tables", len(s.Relational.Tables)),
	))
	if settingsService != nil {
		cmd.Println(mutedStyle.Render("Config file: " + settingsService.Path()))
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, raw := args[0], args[1]
	if err := settingsService.Set(key, parseSettingValue(raw)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	// Reject a value the loader cannot use, so the next command does not fail.
	if _, err := settingsService.Load(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	cmd.Println(successStyle.Render(fmt.Sprintf("%s saved to %s", key, settingsService.Path())))
	return nil
}

// parseSettingValue types a command line value for the config file.
// Integers and booleans keep their type, comma lists become string slices.
func parseSettingValue(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if strings.Contains(raw, ",") && !strings.Contains(raw, "://") {
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return raw
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	if wiring == nil || wiring.CheckEmbedding == nil {
		return fmt.Errorf("embedding check: %w", domain.ErrNotConfigured)
	}

	if err := wiring.CheckEmbedding(cmd.Context(), s.Embedding); err != nil {
		cmd.Println(errorStyle.Render(fmt.Sprintf("%s is not reachable", s.Embedding.Provider.Description())))
		return fmt.Errorf("embedding check: %w", err)
	}
	cmd.Println(successStyle.Render(fmt.Sprintf("%s %s is reachable (%d dims)",
		s.Embedding.Provider.Description(), s.Embedding.Model, s.Embedding.Dimensions)))
	return nil
}
