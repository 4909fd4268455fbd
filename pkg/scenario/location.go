package scenario

import (
	"fmt"
	"runtime"
)

// Location is the source position a step or assertion was declared at.
type Location struct {
	File string
	Line int
}

// IsZero returns true if no location was recorded.
func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0
}

func (l Location) String() string {
	switch {
	case l.IsZero():
		return "<unknown>"
	case l.Line > 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		return l.File
	}
}

// Caller returns the location of the function skip frames above the caller
// of Caller. Caller(0) is the line calling Caller.
func Caller(skip int) Location {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Location{}
	}
	return Location{File: file, Line: line}
}
