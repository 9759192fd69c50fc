package httperr

import (
	"fmt"
	"io"
	"runtime"
)

const maxStackDepth = 32

// Frame is a single call site.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Stack is a list of frames, most recent call first.
type Stack []Frame

// callers captures the stack of the caller, skipping skip extra frames.
func callers(skip int) Stack {
	pc := make([]uintptr, maxStackDepth)
	// +2 skips runtime.Callers and callers itself.
	n := runtime.Callers(skip+2, pc)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pc[:n])
	out := make(Stack, 0, n)
	for {
		fr, more := frames.Next()
		out = append(out, Frame{Function: fr.Function, File: fr.File, Line: fr.Line})
		if !more {
			break
		}
	}
	return out
}

// String renders one frame per line.
func (s Stack) String() string {
	var b []byte
	for i, fr := range s {
		if i > 0 {
			b = append(b, '\n')
		}
		b = fmt.Appendf(b, "%s\n\t%s:%d", fr.Function, fr.File, fr.Line)
	}
	return string(b)
}

func (s Stack) writeTo(w io.Writer) {
	for _, fr := range s {
		_, _ = fmt.Fprintf(w, "\n  %s %s:%d", fr.Function, fr.File, fr.Line)
	}
}
