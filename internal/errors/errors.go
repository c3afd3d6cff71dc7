// Package errors provides the structured, actionable error type used
// throughout nlco: every user-facing failure carries a title, a detail
// line, and a suggestion for what to do about it, instead of a bare
// Go error string.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
)

// Kind classifies a UserError for callers that want to branch on it
// (the iteration controller's error-policy table in spec §7, for
// example) without string-matching the title.
type Kind string

const (
	KindConfig     Kind = "config"
	KindLock       Kind = "lock"
	KindIO         Kind = "io"
	KindLLM        Kind = "llm"
	KindInput      Kind = "input"
	KindInternal   Kind = "internal"
	KindPermission Kind = "permission"
)

// UserError is an error with enough context for a human to act on it.
type UserError struct {
	Kind       Kind
	Title      string
	Detail     string
	Suggestion string
	Cause      error
}

func (e *UserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Title, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func (e *UserError) Unwrap() error { return e.Cause }

func newError(kind Kind, title, detail, suggestion string, cause error) *UserError {
	return &UserError{Kind: kind, Title: title, Detail: detail, Suggestion: suggestion, Cause: cause}
}

func NewConfigError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindConfig, title, detail, suggestion, cause)
}

func NewLockError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindLock, title, detail, suggestion, cause)
}

func NewIOError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindIO, title, detail, suggestion, cause)
}

func NewLLMError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindLLM, title, detail, suggestion, cause)
}

func NewInputError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindInput, title, detail, suggestion, cause)
}

func NewPermissionError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindPermission, title, detail, suggestion, cause)
}

func NewInternalError(title, detail, suggestion string, cause error) *UserError {
	return newError(KindInternal, title, detail, suggestion, cause)
}

// Format renders the error for a terminal (jsonMode=false) or as a
// single JSON object (jsonMode=true), mirroring the two output modes
// every nlco subcommand supports via --json.
func (e *UserError) Format(jsonMode bool) string {
	if jsonMode {
		payload := map[string]string{
			"kind":       string(e.Kind),
			"title":      e.Title,
			"detail":     e.Detail,
			"suggestion": e.Suggestion,
		}
		if e.Cause != nil {
			payload["cause"] = e.Cause.Error()
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Sprintf(`{"title":%q}`, e.Title)
		}
		return string(data)
	}

	out := fmt.Sprintf("Error: %s\n  %s", e.Title, e.Detail)
	if e.Cause != nil {
		out += fmt.Sprintf("\n  cause: %v", e.Cause)
	}
	if e.Suggestion != "" {
		out += fmt.Sprintf("\n  %s", e.Suggestion)
	}
	return out
}

// FatalError prints err in the requested mode and exits the process
// with status 1. Every nlco subcommand funnels unrecoverable errors
// through here so behavior is consistent regardless of call site.
func FatalError(err error, jsonMode bool) {
	if ue, ok := err.(*UserError); ok {
		fmt.Fprintln(os.Stderr, ue.Format(jsonMode))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
