package mlbackend

import "time"

// Config holds ML backend client configuration.
type Config struct {
	URL     string
	Timeout time.Duration
}
