package uninstall

import "github.com/cuemby/teardown/pkg/driver"

// CleanResult is the output of one cleaner pass: the operations to accept
// per offer, and the offer IDs that carried nothing this framework could
// process.
type CleanResult struct {
	Accepted   map[driver.OfferID][]driver.Operation
	Unconsumed []driver.OfferID
}

// Clean is the stateless resource cleaner. For every offered resource
// this framework actually reserved (non-empty, non-tombstoned
// reservationID): a persistent volume gets DESTROY then UNRESERVE, in
// that order within the same accept call; a scalar or range reservation
// gets UNRESERVE alone. An offer with at least one processable resource
// is accepted with its aggregated operation list; an offer with none is
// returned unconsumed for the caller to decline. The cleaner does not
// map operations back to steps — that is the recorder's job.
func Clean(offers []driver.Offer) CleanResult {
	result := CleanResult{Accepted: make(map[driver.OfferID][]driver.Operation)}

	for _, offer := range offers {
		var ops []driver.Operation
		for _, r := range offer.Resources {
			if r.ReservationID == "" || IsTombstoned(r.ReservationID) {
				continue
			}
			switch r.Kind {
			case driver.ResourceVolume:
				ops = append(ops,
					driver.Operation{Type: driver.OperationDestroy, Resource: r},
					driver.Operation{Type: driver.OperationUnreserve, Resource: r},
				)
			case driver.ResourceScalar, driver.ResourceRange:
				ops = append(ops, driver.Operation{Type: driver.OperationUnreserve, Resource: r})
			}
		}

		if len(ops) > 0 {
			result.Accepted[offer.ID] = ops
		} else {
			result.Unconsumed = append(result.Unconsumed, offer.ID)
		}
	}

	return result
}
