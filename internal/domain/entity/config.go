package entity

import (
	"encoding/json"
	"time"
)

// ConfigEntry is one namespaced, versioned configuration document. The
// version increments on every update so readers can detect concurrent
// modification.
type ConfigEntry struct {
	Namespace string
	Value     json.RawMessage
	Version   uint64
	UpdatedAt time.Time
}
