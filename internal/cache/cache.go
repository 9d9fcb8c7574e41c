// Package cache holds the computed dashboard views served by the HTTP API.
package cache

import (
	"sync"
	"time"
)

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically drops expired entries from the registered caches.
type Janitor struct {
	caches   []Cleaner
	stop     chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	onClean  func(removed int)
}

// NewJanitor builds a janitor. onClean, when non-nil, is called after every
// sweep that removed at least one entry.
func NewJanitor(onClean func(removed int), caches ...Cleaner) *Janitor {
	return &Janitor{
		caches:  caches,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		onClean: onClean,
	}
}

// Start begins sweeping every interval until Stop is called. It must be
// called at most once.
func (j *Janitor) Start(interval time.Duration) {
	j.started = true
	go j.run(interval)
}

func (j *Janitor) run(interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := j.Sweep(); removed > 0 && j.onClean != nil {
				j.onClean(removed)
			}
		case <-j.stop:
			return
		}
	}
}

// Sweep cleans all caches once and returns the number of removed entries.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the sweep loop started by Start and waits for it to exit.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.stop)
		if j.started {
			<-j.done
		}
	})
}
