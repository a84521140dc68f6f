package usage

import "time"

// window is the quota period. Counters reset once it elapses.
const window = 24 * time.Hour

func defaultUsage(limit int) Usage {
	return Usage{
		Plan:     "Free",
		Limit:    limit,
		Used:     0,
		ResetsAt: time.Now().UTC().Add(window),
	}
}
