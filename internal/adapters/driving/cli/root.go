// Package cli provides the cobra command tree for docugraph.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docugraph/internal/core/domain"
	"github.com/custodia-labs/docugraph/internal/core/ports/driving"
	"github.com/custodia-labs/docugraph/internal/logger"
)

// Store backends selectable with --store.
const (
	StoreNeo4j  = "neo4j"
	StoreMemory = "memory"
)

// version is set at build time.
var version = "dev"

// Global flags.
var (
	cfgPath   string
	verbose   bool
	storeKind string
)

// Services bundles the core services the commands drive.
type Services struct {
	Index    driving.IndexService
	Backfill driving.BackfillService
	Refresh  driving.RefreshService
	Search   driving.SearchService

	// Ingest is nil when no relational source was opened.
	Ingest driving.IngestService

	// Close releases connections opened for the services. Optional.
	Close func(ctx context.Context) error
}

// ConnectOptions selects what a command needs opened.
type ConnectOptions struct {
	// Store is StoreNeo4j or StoreMemory.
	Store string

	// Relational opens the relational source for ingestion.
	Relational bool

	// Keyword makes refresh validate and create the fulltext index.
	Keyword bool
}

// Wiring builds settings and services when a command first needs them.
type Wiring struct {
	// OpenSettings opens the config file at path. An empty path uses the default location.
	OpenSettings func(path string) (driving.SettingsService, error)

	// Connect opens the store, embedder and sources named by settings.
	Connect func(ctx context.Context, settings domain.Settings, opts ConnectOptions) (*Services, error)

	// CheckEmbedding pings the configured embedding provider.
	CheckEmbedding func(ctx context.Context, settings domain.EmbeddingSettings) error
}

var (
	wiring          *Wiring
	settingsService driving.SettingsService
	connected       *Services

	// ownsServices is set when services were opened by connect and must be closed.
	ownsServices bool
)

var rootCmd = &cobra.Command{
	Use:   "docugraph",
	Short: "Index a wiki and a relational database into a searchable graph",
	Long: `docugraph crawls Confluence spaces and relational tables, stores each page
or row as a node with a vector embedding, and maintains vector and fulltext
indexes over those nodes in Neo4j.

Configuration is read from ~/.docugraph/config.toml and overridden by
environment variables such as CONFLUENCE_BASE_URL and NEO4J_URI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if verbose {
			logger.SetVerbose(true)
		}
		return openSettings()
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		return closeServices(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.docugraph/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", StoreNeo4j, "graph store backend: neo4j or memory")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetWiring installs the builders used to open settings and services.
func SetWiring(w *Wiring) {
	wiring = w
}

// SetSettingsService injects a settings service, bypassing the wiring.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetServices injects core services, bypassing the wiring.
func SetServices(s *Services) {
	connected = s
	ownsServices = false
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func openSettings() error {
	if settingsService != nil || wiring == nil || wiring.OpenSettings == nil {
		return nil
	}
	s, err := wiring.OpenSettings(cfgPath)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settingsService = s
	return nil
}

// loadSettings returns the effective settings.
func loadSettings() (domain.Settings, error) {
	if settingsService == nil {
		return domain.Settings{}, errors.New("settings service not configured")
	}
	settings, err := settingsService.Load()
	if err != nil {
		return settings, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// connect returns the core services, opening them through the wiring on
// first use.
func connect(cmd *cobra.Command, opts ConnectOptions) (*Services, error) {
	if connected != nil {
		return connected, nil
	}
	if wiring == nil || wiring.Connect == nil {
		return nil, errors.New("services not configured")
	}

	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if opts.Store == "" {
		opts.Store = storeKind
	}

	s, err := wiring.Connect(cmd.Context(), settings, opts)
	if err != nil {
		return nil, err
	}
	connected = s
	ownsServices = true
	return s, nil
}

func closeServices(ctx context.Context) error {
	if !ownsServices || connected == nil {
		return nil
	}
	s := connected
	connected = nil
	ownsServices = false
	if s.Close == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return s.Close(ctx)
}

// profileFlag resolves a --profile value.
func profileFlag(cmd *cobra.Command) (domain.IndexProfile, error) {
	name, err := cmd.Flags().GetString("profile")
	if err != nil {
		return domain.IndexProfile{}, fmt.Errorf("getting profile flag: %w", err)
	}
	return domain.ProfileByName(name)
}
