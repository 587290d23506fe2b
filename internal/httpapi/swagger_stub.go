//go:build !swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
)

// MountSwagger is a no-op in default builds. Build with -tags=swagger to
// serve the generated docs under /swagger.
func MountSwagger(r chi.Router) {}
