package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

const EnvVarPrefix = "TESTMAN_SYNC"

var (
	StoreURL = &cli.StringFlag{
		Name:    "store-url",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STORE_URL"),
		Usage:   "Base URL of the test management API",
	}
	StoreToken = &cli.StringFlag{
		Name:    "store-token",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STORE_TOKEN"),
		Usage:   "Bearer token for the test management API",
	}
	StoreTimeout = &cli.DurationFlag{
		Name:    "store-timeout",
		Value:   60 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STORE_TIMEOUT"),
		Usage:   "Timeout for individual requests to the test management API",
	}
	Project = &cli.StringFlag{
		Name:     "project",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "PROJECT"),
		Usage:    "Project ID in the test management system",
	}
	User = &cli.StringFlag{
		Name:    "user",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "USER"),
		Usage:   "User recorded as the executor of attached test records",
	}
	Catalog = &cli.StringFlag{
		Name:     "catalog",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "CATALOG"),
		Usage:    "Path to the test catalog file (eg. 'catalog.yaml')",
	}
	ReportPath = &cli.StringFlag{
		Name:    "path",
		Value:   "junit-results.xml",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PATH"),
		Usage:   "Path to the JUnit-style results file",
	}
	TestRunID = &cli.StringFlag{
		Name:    "test-run-id",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TEST_RUN_ID"),
		Usage:   "ID of the test run to attach records to (generated when omitted)",
	}
	CustomFields = &cli.StringSliceFlag{
		Name:    "custom-fields",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CUSTOM_FIELDS"),
		Usage:   "Custom fields as a JSON object or repeated field=value pairs",
	}
	Jobs = &cli.StringFlag{
		Name:    "jobs",
		Value:   "auto",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "JOBS"),
		Usage:   "Number of sync workers, or 'auto' to match the CPU count",
	}
	ForceUpdate = &cli.BoolFlag{
		Name:    "force-update",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FORCE_UPDATE"),
		Usage:   "Overwrite test cases that already exist instead of leaving them untouched",
	}
	CollectOnly = &cli.BoolFlag{
		Name:    "collect-only",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "COLLECT_ONLY"),
		Usage:   "Collect and report test cases without creating anything",
	}
	DryRun = &cli.BoolFlag{
		Name:    "dry-run",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "DRY_RUN"),
		Usage:   "Sync against an in-memory store instead of the management system",
	}
	Monitoring = &cli.BoolFlag{
		Name:    "monitoring",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "MONITORING"),
		Usage:   "Serve health and metrics endpoints for the duration of the sync",
	}
	PlanName = &cli.StringFlag{
		Name:     "name",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "PLAN_NAME"),
		Usage:    "Name of the plan to create (eg. '1.0 Beta')",
	}
	PlanParentName = &cli.StringFlag{
		Name:    "parent-name",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PLAN_PARENT_NAME"),
		Usage:   "Name of the parent plan, for child plans",
	}
	PlanTemplate = &cli.StringFlag{
		Name:    "plan-type",
		Value:   "release",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PLAN_TYPE"),
		Usage:   "Template the plan is created from, 'release' or 'iteration'",
	}
)

var storeFlags = []cli.Flag{
	StoreURL,
	StoreToken,
	StoreTimeout,
	DryRun,
}

var (
	// TestCaseFlags configures the test-case sync command.
	TestCaseFlags []cli.Flag
	// TestRunFlags configures the test-run sync command.
	TestRunFlags []cli.Flag
	// TestResultsFlags configures the local results summary command.
	TestResultsFlags []cli.Flag
	// TestPlanFlags configures the plan creation command.
	TestPlanFlags []cli.Flag
)

func init() {
	logFlags := oplog.CLIFlags(EnvVarPrefix)

	TestCaseFlags = []cli.Flag{Project, Catalog, CustomFields, Jobs, ForceUpdate, CollectOnly, Monitoring}
	TestCaseFlags = append(TestCaseFlags, storeFlags...)
	TestCaseFlags = append(TestCaseFlags, logFlags...)

	TestRunFlags = []cli.Flag{Project, ReportPath, TestRunID, User, CustomFields, Jobs, Monitoring}
	TestRunFlags = append(TestRunFlags, storeFlags...)
	TestRunFlags = append(TestRunFlags, logFlags...)

	TestResultsFlags = []cli.Flag{ReportPath}
	TestResultsFlags = append(TestResultsFlags, logFlags...)

	TestPlanFlags = []cli.Flag{Project, PlanName, PlanParentName, PlanTemplate}
	TestPlanFlags = append(TestPlanFlags, storeFlags...)
	TestPlanFlags = append(TestPlanFlags, logFlags...)
}

// CheckRequired verifies that every required flag of the running command is
// set, covering values supplied through environment variables.
func CheckRequired(ctx *cli.Context) error {
	if ctx.Command == nil {
		return nil
	}
	for _, f := range ctx.Command.Flags {
		rf, ok := f.(cli.RequiredFlag)
		if !ok || !rf.IsRequired() {
			continue
		}
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
