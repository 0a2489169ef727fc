package integrations

import (
	"io"

	"tourplan/internal/model"
)

// PlaceSource is the minimal interface for candidate place importers.
// Implementations turn an external feed into wire-level candidates that
// can be dropped into a plan request.
type PlaceSource interface {
	Name() string
	Fetch(r io.Reader) ([]model.PlaceIn, error)
}
