package feed

// Filter returns the items matching opts, keeping their order. The result is
// never nil.
func Filter(items []FeedItem, opts FeedOptions) []FeedItem {
	out := make([]FeedItem, 0, len(items))
	for _, item := range items {
		if !matchesKind(item, opts.Kinds) {
			continue
		}
		out = append(out, item)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}

func matchesKind(item FeedItem, kinds []Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if item.Kind == k {
			return true
		}
	}
	return false
}
