package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query failure (evaluation error, invalid plan, non-equivalent benchmark)
	ExitCommandError = 2 // Command error (invalid paths, bad config, undecodable plan)
)

// Error codes reported in CLI responses.
const (
	ErrCodeGeneric   = "E001" // Generic/unknown error
	ErrCodeNotFound  = "E005" // Path not found
	ErrCodeConfig    = "E008" // Configuration error
	ErrCodeDecode    = "E101" // Plan document could not be decoded
	ErrCodeInvalid   = "E102" // Plan has structural problems
	ErrCodeOptimize  = "E103" // Optimizer pass failed
	ErrCodeEvaluate  = "E104" // Evaluation failed
	ErrCodeSQL       = "E105" // SQL compilation or execution failed
	ErrCodeImport    = "E106" // CSV import failed
	ErrCodeBenchmark = "E107" // Benchmark could not run or failed
)

// ExitError carries the process exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// Reported is set when the command already wrote the error to its output.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code and message to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, or ExitFailure when err
// carries none.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported reports whether err was already written by a command.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter writes command results as text or as a JSON envelope.
// Diagnostics go to ErrWriter so JSON on Writer stays parseable.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope every command writes in json format.
// Status is "ok" with Data, or "error" with Error.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError describes a failed command. Code is one of the ErrCode values;
// Details carries the ir error kind when there is one.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data: enveloped in json format, with fmt's default
// formatting otherwise.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes an error report. Details are shown in text format only
// when verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err under code and returns an ExitError carrying exit.
func (f *OutputFormatter) Fail(exit int, code, message string, err error) error {
	full := message
	var details any
	if err != nil {
		full = fmt.Sprintf("%s: %v", message, err)
		var irErr *ir.Error
		if errors.As(err, &irErr) {
			details = map[string]string{"kind": string(irErr.Code)}
		}
	}
	if outErr := f.Error(code, full, details); outErr != nil {
		return outErr
	}
	exitErr := WrapExitError(exit, message, err)
	exitErr.Reported = true
	return exitErr
}

// VerboseLog writes a diagnostic line when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter, falling back to Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// TableData is the JSON form of a result table.
type TableData struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// newTableData converts a table for JSON output. Integers stay numbers.
func newTableData(t *ir.Table) (TableData, error) {
	data := TableData{
		Columns: t.Schema.Names(),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out := make([]any, len(row))
		for j, v := range row {
			switch val := v.(type) {
			case ir.Int:
				out[j] = int64(val)
			case ir.Text:
				out[j] = string(val)
			default:
				s, err := ir.Format(v)
				if err != nil {
					return TableData{}, err
				}
				out[j] = s
			}
		}
		data.Rows[i] = out
	}
	return data, nil
}

// Table outputs a result table: CSV in text mode, TableData in JSON mode.
func (f *OutputFormatter) Table(t *ir.Table) error {
	if f.Format == "json" {
		data, err := newTableData(t)
		if err != nil {
			return err
		}
		return f.Success(data)
	}
	return store.WriteCSV(f.Writer, t)
}

// Report outputs data in JSON mode and the text line otherwise.
func (f *OutputFormatter) Report(data any, text string) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}
