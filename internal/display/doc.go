// Package display formats user-facing terminal messages: warnings for
// unpaired states, failed media probes and project consistency issues, and
// a step counter for multi-file operations.
//
//	warning := display.WarnUnpaired("obs1", unpaired)
//	warning.Display(os.Stderr)
//
// All functions write to an io.Writer so commands can be tested with buffers.
package display
