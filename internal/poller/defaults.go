package poller

import "time"

const (
	defaultSlotLag            = 500
	defaultChunkSize          = 10
	defaultDecodeWorkers      = 8
	defaultMaxInflightFetches = 16
	defaultPollsPerSecond     = 4

	pollFailureBackoff = time.Second
)
