package chat

import "sort"

// Reconcile merges the local outbox queue with the server-confirmed feed
// into the single ordered list to render.
//
// Entries still waiting for confirmation (Local=true) always appear, so a
// send is visible the moment the user hits enter. Promoted entries (local
// copies that already carry their durable ID) are dropped as soon as the
// feed contains that ID, so the server copy is rendered exactly once and
// there is no duplicate during the handoff. The merged list is ordered
// ascending by effective timestamp; the sort is stable, so equal
// timestamps keep their input order.
func Reconcile(localQueue, serverFeed []*Message) []*Message {
	inFeed := make(map[string]bool, len(serverFeed))
	for _, m := range serverFeed {
		inFeed[m.ID] = true
	}

	merged := make([]*Message, 0, len(localQueue)+len(serverFeed))
	for _, m := range localQueue {
		if m.Local || !inFeed[m.ID] {
			merged = append(merged, m)
		}
	}
	merged = append(merged, serverFeed...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].EffectiveTime().Before(merged[j].EffectiveTime())
	})

	return merged
}
