// Package command provides the Invocation value produced by command builders
// and the CommandRunner abstraction used to execute short-lived tool calls.
//
// Builders never spawn processes themselves: they return an Invocation which
// the ffmpeg runner executes, or which can be printed as a dry run.
package command

import (
	"strings"
)

// Kind identifies what an invocation produces.
type Kind string

const (
	KindExport  Kind = "export"  // Final render chosen by the user
	KindPreview Kind = "preview" // Short transient render
)

// Builder is implemented by every command builder.
type Builder interface {
	// Build validates the builder state and returns the assembled invocation.
	// Building is deterministic: the same inputs yield the same arguments.
	Build() (*Invocation, error)
}

// Invocation is a fully assembled external command.
type Invocation struct {
	Kind   Kind
	Binary string   // Executable, "ffmpeg" unless overridden
	Args   []string // Arguments, without the binary
	Env    []string // Extra environment entries (KEY=VALUE)

	OutputPath string  // File written by the command
	Timeline   float64 // Expected output length in seconds, used for progress
	Encoder    string  // Video encoder name, "copy" for pass-through
	Backend    string  // Hardware backend name, "none" for software

	// Temporary outputs are removed on any unsuccessful outcome.
	Temporary bool
}

// IsTemporary reports whether the output must be removed when the run does not succeed.
func (inv *Invocation) IsTemporary() bool {
	return inv.Temporary || inv.Kind == KindPreview
}

// Category is the short label used in logs and error messages.
func (inv *Invocation) Category() string {
	if inv.Kind == "" {
		return "ffmpeg"
	}
	return string(inv.Kind)
}

// DryRun returns the command line as it could be pasted into a shell.
func (inv *Invocation) DryRun() string {
	binary := inv.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, shellQuote(binary))
	for _, a := range inv.Args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

// String implements fmt.Stringer.
func (inv *Invocation) String() string {
	return inv.DryRun()
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>()[]*?!#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
