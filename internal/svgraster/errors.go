package svgraster

import "fmt"

// IOError reports an SVG file that could not be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to read SVG file '%s': %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError reports malformed SVG input.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse SVG file '%s': %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
