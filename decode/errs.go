package decode

import (
	"fmt"

	"github.com/confkit/hydrate/format"
)

// FormatError reports input text which could not be decoded in the named
// format.
type FormatError struct {
	Format format.Format
	Input  []byte
	Err    error
}

func (e *FormatError) Error() string {
	in := string(e.Input)
	if len(in) > 64 {
		in = in[:64] + "..."
	}
	return fmt.Sprintf("cannot decode %s input %q: %v", e.Format, in, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
