package observability

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SessionLogger derives a logger for one session, tagged with the component
// name and a fresh session id so interleaved sessions stay separable.
func SessionLogger(component string) (zerolog.Logger, string) {
	id := uuid.NewString()
	return log.Logger.With().
		Str("component", component).
		Str("session_id", id).
		Logger(), id
}
