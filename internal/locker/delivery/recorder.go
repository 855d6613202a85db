package delivery

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/locker/internal/locker/service"
)

// Recorder keeps deliveries in memory. Tests use it to pull reset tokens.
type Recorder struct {
	mu         sync.Mutex
	deliveries []service.ResetDelivery

	// Err, when set, is returned from every Deliver call after recording.
	Err error
}

var _ service.TokenDelivery = (*Recorder)(nil)

func (r *Recorder) Deliver(_ context.Context, d service.ResetDelivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, d)
	return r.Err
}

func (r *Recorder) Deliveries() []service.ResetDelivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]service.ResetDelivery, len(r.deliveries))
	copy(out, r.deliveries)
	return out
}

// Last returns the most recent delivery.
func (r *Recorder) Last() (service.ResetDelivery, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.deliveries) == 0 {
		return service.ResetDelivery{}, false
	}
	return r.deliveries[len(r.deliveries)-1], true
}
