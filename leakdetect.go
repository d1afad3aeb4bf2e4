package cosmos

import (
	"sync"
	"sync/atomic"
)

// leakRecord is what a LeakDetector keeps per tracked descriptor: enough
// to report both which fd leaked and where it was opened.
type leakRecord struct {
	fd   FileNum
	site Site
}

// LeakDetector tracks every FileBase created with an owning autoClose
// while it is active, so a test can assert that a code path under test
// did not leave any kernel descriptor open past the point it should have
// been closed. It is built on the same Watchers/fdtable registry Poller
// uses to map epoll user data back to Go values, repurposed here to map
// a registration key back to the site that opened the descriptor.
type LeakDetector struct {
	mu       sync.Mutex
	watchers Watchers[leakRecord]
}

var activeLeakDetector atomic.Pointer[LeakDetector]

// StartLeakDetection installs and returns a new LeakDetector. Every
// owning FileBase constructed from this point on (until Stop) registers
// itself on creation and unregisters on Close or Steal. Only one detector
// can be active at a time.
func StartLeakDetection() *LeakDetector {
	d := &LeakDetector{}
	activeLeakDetector.Store(d)
	return d
}

// Stop deactivates d; FileBase values created afterward are no longer
// tracked.
func (d *LeakDetector) Stop() {
	activeLeakDetector.CompareAndSwap(d, nil)
}

// Open returns the site each currently-open, still-tracked FileBase was
// opened at. A non-empty result after the code under test has run its
// course and released its handles indicates a descriptor leak.
func (d *LeakDetector) Open() []Site {
	d.mu.Lock()
	defer d.mu.Unlock()
	var sites []Site
	d.watchers.Range(func(_ uint64, rec leakRecord) bool {
		sites = append(sites, rec.site)
		return true
	})
	return sites
}

// Count returns the number of currently tracked, still-open descriptors.
func (d *LeakDetector) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.watchers.Len()
}

func (d *LeakDetector) register(fd FileNum, site Site) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.watchers.Register(leakRecord{fd: fd, site: site})
}

func (d *LeakDetector) unregister(key uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.watchers.Unregister(key)
}

// trackOpen registers fd with the active LeakDetector, if any, returning
// the key to later pass to trackClose and whether a registration actually
// happened.
func trackOpen(fd FileNum) (key uint64, tracked bool) {
	d := activeLeakDetector.Load()
	if d == nil {
		return 0, false
	}
	return d.register(fd, callSite(2)), true
}

func trackClose(key uint64) {
	if d := activeLeakDetector.Load(); d != nil {
		d.unregister(key)
	}
}
