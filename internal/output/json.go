// Package output renders command results as a JSON envelope on stdout.
package output

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/dotcommander/doccache/internal/models"
)

const schemaVersion = "v1"

// Response represents a standard JSON response
type Response struct {
	SchemaVersion   string            `json:"schema_version"`
	Success         bool              `json:"success"`
	Data            any               `json:"data,omitempty"`
	Error           string            `json:"error,omitempty"`
	ErrorCode       string            `json:"error_code,omitempty"`
	ErrorContext    map[string]string `json:"error_context,omitempty"`
	SuggestedAction string            `json:"suggested_action,omitempty"`
}

// Config controls where and how JSON is written.
type Config struct {
	Writer io.Writer
	Pretty bool
}

// DefaultConfig writes to stdout. Output is indented when stdout is a
// terminal or DOCCACHE_PRETTY_JSON is "1" or "true".
func DefaultConfig() Config {
	return Config{Writer: os.Stdout, Pretty: prettyRequested()}
}

func prettyRequested() bool {
	switch os.Getenv("DOCCACHE_PRETTY_JSON") {
	case "1", "true":
		return true
	case "0", "false":
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Success wraps a successful response with data
func Success(data any) Response {
	return Response{
		SchemaVersion: schemaVersion,
		Success:       true,
		Data:          data,
	}
}

// Error wraps an error in a response. Recoverable errors anywhere in the
// chain contribute their code, context and suggested action.
func Error(err error) Response {
	resp := Response{
		SchemaVersion: schemaVersion,
		Success:       false,
		Error:         err.Error(),
	}
	var re models.RecoverableError
	if errors.As(err, &re) {
		resp.ErrorCode = re.ErrorCode()
		resp.ErrorContext = re.Context()
		resp.SuggestedAction = re.SuggestedAction()
	}
	return resp
}

// PrintWith encodes v using cfg.
func PrintWith(cfg Config, v any) error {
	enc := json.NewEncoder(cfg.Writer)
	if cfg.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Print prints a value as JSON to stdout
func Print(v any) error {
	return PrintWith(DefaultConfig(), v)
}

// PrintSuccess prints a success response
func PrintSuccess(data any) error {
	return Print(Success(data))
}

// PrintError prints an error response
func PrintError(err error) error {
	return Print(Error(err))
}
