// Package logs reads the daemon log file for the logs command, either
// directly from disk or through the daemon API when one is running.
package logs
