package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrSourceFileMissing is returned when a source file is absent after fetching
var ErrSourceFileMissing = errors.New("source file missing")

// SchemaError reports a source column that is absent or has an unexpected type
type SchemaError struct {
	File   string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema error in %s: %s", e.File, e.Reason)
	}
	return fmt.Sprintf("schema error in %s: column %q %s", e.File, e.Column, e.Reason)
}
