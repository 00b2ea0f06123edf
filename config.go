package testman

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/testman-sync/client"
	"github.com/ethereum-optimism/infra/testman-sync/fields"
	"github.com/ethereum-optimism/infra/testman-sync/flags"
)

// Plan templates accepted by the plan command.
const (
	PlanTemplateRelease   = "release"
	PlanTemplateIteration = "iteration"
)

// Config holds the application configuration
type Config struct {
	StoreURL       string
	StoreToken     string
	StoreTimeout   time.Duration
	Project        string         // Project ID in the test management system
	User           string         // Recorded as the executor of attached test records
	DryRun         bool           // Sync against an in-memory store instead of the management system
	CatalogFile    string         // Path to the test catalog file
	ReportPath     string         // Path to the JUnit-style results file
	RunID          string         // Test run to attach records to; generated when empty
	CustomFields   map[string]any // Resolved --custom-fields input
	Jobs           int            // Number of sync workers
	ForceUpdate    bool           // Overwrite existing test cases from the catalog
	CollectOnly    bool           // Collect test cases without creating anything
	Monitoring     bool           // Serve health and metrics endpoints during the sync
	PlanName       string         // Name of the plan to create
	PlanParentName string         // Name of the plan's parent, when nested
	PlanTemplate   string         // Template the plan is created from
	Log            log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	customFields, err := fields.Resolve(ctx.StringSlice(flags.CustomFields.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve custom fields: %w", err)
	}

	jobs, err := parseJobs(ctx.String(flags.Jobs.Name))
	if err != nil {
		return nil, err
	}

	// Commands without the plan flags read an empty template, which is fine
	// since they never create plans.
	planTemplate := ctx.String(flags.PlanTemplate.Name)
	if planTemplate != "" && planTemplate != PlanTemplateRelease && planTemplate != PlanTemplateIteration {
		return nil, fmt.Errorf("invalid plan type: %s. Must be one of: %s, %s",
			planTemplate, PlanTemplateRelease, PlanTemplateIteration)
	}

	return &Config{
		StoreURL:       ctx.String(flags.StoreURL.Name),
		StoreToken:     ctx.String(flags.StoreToken.Name),
		StoreTimeout:   ctx.Duration(flags.StoreTimeout.Name),
		Project:        ctx.String(flags.Project.Name),
		User:           ctx.String(flags.User.Name),
		DryRun:         ctx.Bool(flags.DryRun.Name),
		CatalogFile:    ctx.String(flags.Catalog.Name),
		ReportPath:     ctx.String(flags.ReportPath.Name),
		RunID:          ctx.String(flags.TestRunID.Name),
		CustomFields:   customFields,
		Jobs:           jobs,
		ForceUpdate:    ctx.Bool(flags.ForceUpdate.Name),
		CollectOnly:    ctx.Bool(flags.CollectOnly.Name),
		Monitoring:     ctx.Bool(flags.Monitoring.Name),
		PlanName:       ctx.String(flags.PlanName.Name),
		PlanParentName: ctx.String(flags.PlanParentName.Name),
		PlanTemplate:   planTemplate,
		Log:            log,
	}, nil
}

// NewStore creates the store this config selects: an in-memory one for dry
// runs, otherwise the HTTP client of the management system.
func (c *Config) NewStore() (client.Store, error) {
	if c.DryRun {
		c.Log.Warn("Dry run enabled, records stay local")
		return client.NewMemStore(), nil
	}
	if c.StoreURL == "" {
		return nil, errors.New("store URL is required")
	}
	return client.NewHTTPStore(client.Config{
		URL:     c.StoreURL,
		Token:   c.StoreToken,
		Timeout: c.StoreTimeout,
	}, c.Log)
}

// parseJobs reads the worker count flag. "auto" (or an empty value) matches
// the machine's CPU count.
func parseJobs(value string) (int, error) {
	if value == "" || value == "auto" {
		return runtime.NumCPU(), nil
	}
	jobs, err := strconv.Atoi(value)
	if err != nil || jobs < 1 {
		return 0, fmt.Errorf("invalid jobs value: %q. Must be a positive number or 'auto'", value)
	}
	return jobs, nil
}
