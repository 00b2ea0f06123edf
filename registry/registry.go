package registry

import (
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/testman-sync/types"
)

// Registry holds the test catalog produced by the discovery tooling and
// answers identity and module lookups during a sync.
type Registry struct {
	config  Config
	entries []types.CatalogEntry
	byID    map[string]types.CatalogEntry
	modules []string
	mu      sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log         log.Logger
	CatalogFile string
}

// catalogFile is the on-disk shape of the test catalog.
type catalogFile struct {
	Tests []types.CatalogEntry `yaml:"tests"`
}

// NewRegistry creates a new registry instance
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.CatalogFile == "" {
		return nil, fmt.Errorf("test catalog file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{
		config: cfg,
	}

	if err := r.loadEntries(cfg.CatalogFile); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	cfg.Log.Debug("Registry loaded", "len(entries)", len(r.entries), "len(modules)", len(r.modules))

	return r, nil
}

// loadEntries loads and validates the test catalog
func (r *Registry) loadEntries(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	catalog, err := loadCatalog(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	byID := make(map[string]types.CatalogEntry, len(catalog.Tests))
	var modules []string
	seenModules := make(map[string]bool)
	for i, entry := range catalog.Tests {
		if entry.Module == "" {
			return fmt.Errorf("catalog entry %d has no module", i)
		}
		if entry.Name == "" {
			return fmt.Errorf("catalog entry %d has no test name", i)
		}
		id := entry.Identity()
		if _, exists := byID[id]; exists {
			return fmt.Errorf("duplicate test identity %s", id)
		}
		byID[id] = entry
		if !seenModules[entry.Module] {
			seenModules[entry.Module] = true
			modules = append(modules, entry.Module)
		}
	}

	r.entries = catalog.Tests
	r.byID = byID
	r.modules = modules

	return nil
}

// Entries returns all catalog entries in file order.
func (r *Registry) Entries() []types.CatalogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries
}

// Entry returns the catalog entry for a test case identity.
func (r *Registry) Entry(id string) (types.CatalogEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byID[id]
	return entry, ok
}

// Modules returns the distinct source modules in first-appearance order.
// Modules are the unit of work distribution during a sync.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.modules
}

// EntriesByModule returns the entries declared in a specific module.
func (r *Registry) EntriesByModule(module string) []types.CatalogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []types.CatalogEntry
	for _, entry := range r.entries {
		if entry.Module == module {
			entries = append(entries, entry)
		}
	}
	return entries
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}

// loadCatalog loads a test catalog from a file
func loadCatalog(path string) (*catalogFile, error) {
	log.Debug("Reading test catalog file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}

	return &catalog, nil
}
