package ids

import "github.com/segmentio/ksuid"

// New returns a time-sortable identifier for hosted objects.
func New() string {
	return ksuid.New().String()
}
