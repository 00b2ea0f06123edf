// Package exitcodes defines the standard exit codes used by testman-sync.
package exitcodes

// Exit code constants used by testman-sync
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when the sync completes without failed units
// * SyncFailure (1): Used when one or more test cases or records fail to sync
// * RuntimeErr (2): Used for runtime errors such as bad input files or flags
const (
	Success     = 0 // Sync completed cleanly
	SyncFailure = 1 // Failed test cases or records
	RuntimeErr  = 2 // Runtime errors or bad configuration
)
