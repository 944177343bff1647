// Package cli holds flag types shared by the build-env commands.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	trueWords  = []string{"yes", "true", "t", "y", "1"}
	falseWords = []string{"no", "false", "f", "n", "0"}
)

// ParseBoolError is returned for a boolean flag value outside the
// accepted words.
type ParseBoolError struct {
	Value string
}

func (e *ParseBoolError) Error() string {
	return fmt.Sprintf("boolean value expected, got %q (use one of %s or %s)",
		e.Value, strings.Join(trueWords, ","), strings.Join(falseWords, ","))
}

// IsParseBoolError reports whether err is or wraps a *ParseBoolError.
func IsParseBoolError(err error) bool {
	var pe *ParseBoolError
	return errors.As(err, &pe)
}

// ParseBool maps yes/true/t/y/1 to true and no/false/f/n/0 to false,
// ignoring case. Anything else is an error.
func ParseBool(s string) (bool, error) {
	v := strings.ToLower(s)
	for _, w := range trueWords {
		if v == w {
			return true, nil
		}
	}
	for _, w := range falseWords {
		if v == w {
			return false, nil
		}
	}
	return false, &ParseBoolError{Value: s}
}

// BoolValue is a pflag.Value that always takes an argument and parses
// it with ParseBool.
type BoolValue struct {
	p *bool
}

// NewBoolValue stores def in p and returns a value writing to p.
func NewBoolValue(p *bool, def bool) *BoolValue {
	*p = def
	return &BoolValue{p: p}
}

func (b *BoolValue) Set(s string) error {
	v, err := ParseBool(s)
	if err != nil {
		return err
	}
	*b.p = v
	return nil
}

func (b *BoolValue) String() string {
	if b == nil || b.p == nil {
		return "false"
	}
	return strconv.FormatBool(*b.p)
}

// Type is the value placeholder shown in usage. It is not "bool", which
// pflag would print as a bare switch.
func (b *BoolValue) Type() string {
	return "yes|no"
}
