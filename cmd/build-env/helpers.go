package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gookit/color"

	"github.com/fastogt/build-env/internal/builder"
	"github.com/fastogt/build-env/internal/errmsg"
)

// printJSON marshals the given value to JSON and prints it to w
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatError renders err with the suggestions errmsg knows for it.
func formatError(err error) string {
	var ctx *errmsg.ErrorContext
	var stepErr *builder.StepError
	if errors.As(err, &stepErr) {
		ctx = &errmsg.ErrorContext{Component: stepErr.Component.String()}
	}
	return errmsg.Format(err, ctx)
}

// printError prints an error to stderr with suggestions if available.
func printError(err error) {
	fmt.Fprintln(os.Stderr, color.Red.Sprint("Error: ")+formatError(err))
}
