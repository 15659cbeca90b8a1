package uninstall

// Inventory is the output of resource-inventory computation: which tasks
// need killing, and which distinct reservationIDs need releasing. Order is
// deterministic (first-sighting order across the
// input tasks) so plan construction is reproducible given the same
// persisted task set.
type Inventory struct {
	KillTargets    []string
	ReleaseTargets []string
}

// BuildInventory computes the kill/release targets for the given persisted
// tasks.
//
// killTargets includes every task that either still owns a non-tombstoned
// resource or is permanently-failed-in-error. releaseTargets is the
// distinct set of non-tombstoned reservationIDs owned by tasks that are
// NOT permanently-failed-in-error — note this does not additionally
// exclude tasks whose LastStatus is ERROR without being marked
// permanently-failed-in-error: a task in that state still contributes its
// resources. This asymmetry is intentional and preserved as-is.
func BuildInventory(tasks []*TaskRecord) Inventory {
	killSeen := make(map[string]bool)
	releaseSeen := make(map[string]bool)
	var inv Inventory

	for _, t := range tasks {
		if (t.OwnsUnreleasedResource() || t.PermanentlyFailedInError) && !killSeen[t.Name] {
			killSeen[t.Name] = true
			inv.KillTargets = append(inv.KillTargets, t.Name)
		}

		if t.PermanentlyFailedInError {
			continue
		}
		for _, r := range t.Resources {
			if IsTombstoned(r.ReservationID) {
				continue
			}
			if releaseSeen[r.ReservationID] {
				continue
			}
			releaseSeen[r.ReservationID] = true
			inv.ReleaseTargets = append(inv.ReleaseTargets, r.ReservationID)
		}
	}

	return inv
}
