// Command subgen runs the subtitle generation daemon and its admin CLI.
package main
