// Package confloader provides configuration loading for SimSync.
//
// It implements a layered loader on top of koanf:
//
//   - Sources: a YAML file, SIMSYNC_* environment variables and plain maps
//   - Reload: re-reads all sources into a fresh tree
//   - Watch: fsnotify-based change notification for the config file
//
// Priority (highest to lowest):
//
//  1. Maps loaded with LoadMap (flags, tests)
//  2. Environment variables
//  3. Configuration file
//  4. Values already present in the target struct (defaults)
//
// Environment variables use a double underscore between levels so keys
// containing underscores survive: SIMSYNC_SERVER__HTTP__RATE_LIMIT=50
// maps to server.http.rate_limit.
package confloader
