// Package repl provides the interactive shell mode for simsync-cli.
//
// Each line is split into arguments (single and double quotes group words)
// and handed to an Executor, normally the CLI app itself. Built-in lines:
//
//	help [PREFIX]   list commands, optionally filtered by prefix
//	history         print previous lines, most recent last
//	exit, quit      leave the shell (Ctrl+D also works)
//
// History is kept in memory and persisted to a file between sessions.
package repl
