package sim

import "fmt"

// ServiceResource is one station's instance of one service: a pool of C slots.
//
// Invariant: 0 ≤ available ≤ capacity at all times. Consumable (non-reusable)
// slots are spent permanently; reusable slots return when Release is called.
type ServiceResource struct {
	Name     string
	KM       float64
	capacity int
	reusable bool
	duration float64

	available    int
	acquisitions int
	denials      int
}

// NewServiceResource creates a resource with all slots available and a fixed
// service duration.
func NewServiceResource(name string, km float64, capacity int, reusable bool, duration float64) *ServiceResource {
	if capacity < 0 {
		panic(fmt.Sprintf("service %q at km %v: negative capacity %d", name, km, capacity))
	}
	return &ServiceResource{
		Name:      name,
		KM:        km,
		capacity:  capacity,
		reusable:  reusable,
		duration:  duration,
		available: capacity,
	}
}

// TryAcquire takes one slot if any is available. The check and the decrement
// are one step: no suspension can happen between them.
func (r *ServiceResource) TryAcquire() bool {
	if r.available <= 0 {
		r.denials++
		return false
	}
	r.available--
	r.acquisitions++
	r.checkInvariant()
	return true
}

// Release returns a slot to the pool, never above capacity.
// A no-op for consumable resources.
func (r *ServiceResource) Release() {
	if !r.reusable || r.available >= r.capacity {
		return
	}
	r.available++
}

// ServiceDuration returns the fixed service time of this resource instance.
func (r *ServiceResource) ServiceDuration() float64 { return r.duration }

// Capacity returns C.
func (r *ServiceResource) Capacity() int { return r.capacity }

// Available returns the number of free slots.
func (r *ServiceResource) Available() int { return r.available }

// InUse returns the number of slots currently taken (or spent, if consumable).
func (r *ServiceResource) InUse() int { return r.capacity - r.available }

// Reusable reports whether slots return after use.
func (r *ServiceResource) Reusable() bool { return r.reusable }

// Acquisitions returns the number of successful TryAcquire calls.
func (r *ServiceResource) Acquisitions() int { return r.acquisitions }

// Denials returns the number of failed TryAcquire calls.
func (r *ServiceResource) Denials() int { return r.denials }

// checkInvariant panics on a resource consistency violation. It cannot
// happen while acquisition stays atomic; if it does, the run is corrupt.
func (r *ServiceResource) checkInvariant() {
	if r.available < 0 || r.available > r.capacity {
		panic(fmt.Sprintf("resource consistency violated: service %q at km %v has %d/%d available",
			r.Name, r.KM, r.available, r.capacity))
	}
}

// Station is a checkpoint with its service resources in configured order.
type Station struct {
	KM        float64
	Services  []string
	Resources map[string]*ServiceResource
}

// Resource returns the named service resource, or nil if it is not offered here.
func (s *Station) Resource(name string) *ServiceResource {
	return s.Resources[name]
}
