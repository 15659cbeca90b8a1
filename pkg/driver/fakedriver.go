package driver

import (
	"sync"

	"github.com/google/uuid"
)

// AcceptCall records one Accept invocation for test assertions.
type AcceptCall struct {
	OfferIDs   []OfferID
	Operations []Operation
	Filters    Filters
}

// FakeDriver is an in-memory Driver for tests and dry-run deployments: it
// records every command issued and lets the caller drive offers/status
// updates into the attached Scheduler by hand, rather than speaking to a
// real master.
type FakeDriver struct {
	mu sync.Mutex

	scheduler Scheduler

	Accepts      []AcceptCall
	Declines     []OfferID
	Killed       []TaskID
	Reconciles   [][]TaskID
	Deregistered bool
}

// NewFakeDriver returns a FakeDriver that delivers offers/status updates to
// scheduler.
func NewFakeDriver(scheduler Scheduler) *FakeDriver {
	return &FakeDriver{scheduler: scheduler}
}

// NewOfferID generates a synthetic offer ID, mirroring how a real master
// hands out opaque per-cycle identifiers.
func NewOfferID() OfferID {
	return OfferID(uuid.NewString())
}

// Offer delivers offers to the attached scheduler, as a real driver would
// on receiving a resourceOffers callback from the master.
func (d *FakeDriver) Offer(offers []Offer) {
	d.scheduler.Offers(d, offers)
}

// Status delivers a single task status update to the attached scheduler.
func (d *FakeDriver) Status(status TaskStatus) {
	d.scheduler.StatusUpdate(d, status)
}

// Accept records the call; it performs no actual resource bookkeeping —
// tests assert against d.Accepts directly.
func (d *FakeDriver) Accept(offerIDs []OfferID, operations []Operation, filters Filters) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Accepts = append(d.Accepts, AcceptCall{
		OfferIDs:   append([]OfferID(nil), offerIDs...),
		Operations: append([]Operation(nil), operations...),
		Filters:    filters,
	})
	return nil
}

// Decline records the declined offer.
func (d *FakeDriver) Decline(offerID OfferID, filters Filters) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Declines = append(d.Declines, offerID)
	return nil
}

// Kill records the kill request.
func (d *FakeDriver) Kill(taskID TaskID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Killed = append(d.Killed, taskID)
	return nil
}

// Reconcile records the reconcile request.
func (d *FakeDriver) Reconcile(tasks []TaskID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Reconciles = append(d.Reconciles, append([]TaskID(nil), tasks...))
	return nil
}

// Deregister records that deregistration was requested.
func (d *FakeDriver) Deregister() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Deregistered = true
	return nil
}
