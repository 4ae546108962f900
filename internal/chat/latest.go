package chat

// LatestByListing picks, for each listing, the conversation with the most
// recent activity. Feed delivery order is not trusted: timestamps are
// compared explicitly, and on an exact tie the earlier-seen conversation
// is retained, so the result is deterministic for a given input order.
func LatestByListing(convs []*Conversation) map[string]*Conversation {
	latest := make(map[string]*Conversation, len(convs))
	for _, c := range convs {
		cur, ok := latest[c.ListingID]
		if !ok {
			latest[c.ListingID] = c
			continue
		}
		if c.ActivityTime().After(cur.ActivityTime()) {
			latest[c.ListingID] = c
		}
	}
	return latest
}
