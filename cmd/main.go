package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	testman "github.com/ethereum-optimism/infra/testman-sync"
	"github.com/ethereum-optimism/infra/testman-sync/exitcodes"
	"github.com/ethereum-optimism/infra/testman-sync/flags"
	"github.com/ethereum-optimism/infra/testman-sync/service"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	oplog.SetupDefaults()

	app := newApp()

	ctx := ctxinterrupt.WithSignalWaiterMain(context.Background())
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "testman-sync"
	app.Usage = "Test Management Synchronization Service"
	app.Description = "testman-sync mirrors a test tree and its execution results into a test management system"
	app.Commands = []*cli.Command{
		{
			Name:   "test-case",
			Usage:  "sync the test catalog into the management system",
			Flags:  cliapp.ProtectFlags(flags.TestCaseFlags),
			Action: syncAction(testCaseMain),
		},
		{
			Name:   "test-run",
			Usage:  "attach the records of a results file to a test run",
			Flags:  cliapp.ProtectFlags(flags.TestRunFlags),
			Action: syncAction(testRunMain),
		},
		{
			Name:   "test-results",
			Usage:  "summarize a results file without touching the management system",
			Flags:  cliapp.ProtectFlags(flags.TestResultsFlags),
			Action: syncAction(testResultsMain),
		},
		{
			Name:   "test-plan",
			Usage:  "create a test plan",
			Flags:  cliapp.ProtectFlags(flags.TestPlanFlags),
			Action: syncAction(testPlanMain),
		},
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			// Use the exit code from the ExitCoder
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			cli.HandleExitCoder(cli.Exit(err.Error(), errorExitCode(err)))
		}
	}
	return app
}

// errorExitCode maps typed sync errors onto the process exit code: runtime
// errors exit with 2, everything else counts as a sync failure and exits
// with 1.
func errorExitCode(err error) int {
	if testman.IsRuntimeError(err) {
		return exitcodes.RuntimeErr
	}
	return exitcodes.SyncFailure
}

// syncAction bootstraps logging and config before handing over to the
// command, and serves the monitoring endpoints around it when enabled.
func syncAction(fn func(ctx *cli.Context, cfg *testman.Config) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		logCfg := oplog.ReadCLIConfig(ctx)
		logger := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
		oplog.SetGlobalLogHandler(logger.Handler())

		cfg, err := testman.NewConfig(ctx, logger)
		if err != nil {
			// Wrap in RuntimeError to signal this should exit with code 2
			return testman.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
		}

		if cfg.Monitoring {
			svc := service.New()
			svc.Start(ctx.Context)
			defer svc.Shutdown()
		}

		return fn(ctx, cfg)
	}
}

func testCaseMain(ctx *cli.Context, cfg *testman.Config) error {
	store, err := cfg.NewStore()
	if err != nil {
		return testman.NewRuntimeError(fmt.Errorf("failed to create store: %w", err))
	}
	defer store.Close()

	summary, err := testman.SyncCases(ctx.Context, cfg, store)
	if summary != nil {
		testman.NewConsoleFormatter(nil).PrintCaseSummary(summary)
	}
	return err
}

func testRunMain(ctx *cli.Context, cfg *testman.Config) error {
	store, err := cfg.NewStore()
	if err != nil {
		return testman.NewRuntimeError(fmt.Errorf("failed to create store: %w", err))
	}
	defer store.Close()

	summary, err := testman.SyncRun(ctx.Context, cfg, store)
	if summary != nil {
		testman.NewConsoleFormatter(nil).PrintRunSummary(summary)
	}
	return err
}

func testResultsMain(ctx *cli.Context, cfg *testman.Config) error {
	results, err := testman.Results(cfg)
	if err != nil {
		return err
	}
	testman.NewConsoleFormatter(nil).PrintResultCounts(results)
	return nil
}

func testPlanMain(ctx *cli.Context, cfg *testman.Config) error {
	store, err := cfg.NewStore()
	if err != nil {
		return testman.NewRuntimeError(fmt.Errorf("failed to create store: %w", err))
	}
	defer store.Close()

	_, _, err = testman.CreatePlan(ctx.Context, cfg, store)
	return err
}
