package health

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/sig-0/fxcompare/provider"
)

// scheduledProbe is a single scheduled provider probe job
type scheduledProbe struct {
	at         time.Time
	provider   provider.Provider
	providerID xid.ID
}

// Less is utilized to sort scheduled probes by their due-time (earliest == first)
func (a scheduledProbe) Less(b scheduledProbe) bool {
	return a.at.Before(b.at)
}

// workerInfo is the work context for the probe routine
type workerInfo struct {
	prober     *Prober
	provider   provider.Provider
	resCh      chan<- *workerResponse
	providerID xid.ID
}

// workerResponse is the probe routine response
type workerResponse struct {
	checkedAt  time.Time     // when the probe finished
	elapsed    time.Duration // how long the probe took
	providerID xid.ID        // the provider ID
	healthy    bool          // the probe result
}

// handleJob probes the provider
func handleJob(
	ctx context.Context,
	info *workerInfo,
) {
	start := time.Now()
	healthy := info.prober.Probe(ctx, info.provider)

	response := &workerResponse{
		checkedAt:  time.Now().UTC(),
		elapsed:    time.Since(start),
		providerID: info.providerID,
		healthy:    healthy,
	}

	select {
	case <-ctx.Done():
	case info.resCh <- response:
	}
}
