// Package constants provides centralized constant values used throughout srcstage.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory and file names used by srcstage.
const (
	// AppHome is the hidden directory name where srcstage stores its data.
	// It is created in the user's home directory and, for project config,
	// in the project root.
	AppHome = ".srcstage"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// CLILogFileName is the rotating log file written by every CLI run.
	CLILogFileName = "srcstage.log"

	// ConfigFileName is the config file looked up in global and project homes.
	ConfigFileName = "config.yaml"
)

// Environment variables.
const (
	// EnvPrefix is the prefix for environment overrides, e.g. SRCSTAGE_PATCHES_DIR.
	EnvPrefix = "SRCSTAGE"

	// EnvHome overrides the global home directory.
	EnvHome = "SRCSTAGE_HOME"
)

// Log rotation settings for the CLI log file.
const (
	// LogMaxSizeMB is the size at which the log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated files kept.
	LogMaxBackups = 5

	// LogMaxAgeDays is how long rotated files are kept.
	LogMaxAgeDays = 28

	// LogCompress gzips rotated files.
	LogCompress = true
)

// Execution defaults.
const (
	// DefaultCommandTimeout bounds a single CLI invocation, including every
	// external patch, git, curl and tar process it runs.
	DefaultCommandTimeout = 30 * time.Minute

	// DefaultHashWorkers is the number of goroutines checksumming files during
	// an incremental sync.
	DefaultHashWorkers = 8
)
