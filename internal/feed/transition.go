package feed

// ApplyReaction returns the counts and reaction that result from the viewer
// asking for desired while currently showing current. Asking for the reaction
// already held clears it. Like and dislike counts never drop below zero.
func ApplyReaction(c Counts, current, desired Reaction) (Counts, Reaction) {
	next := desired
	if current == desired {
		next = ReactionNone
	}

	switch current {
	case ReactionLike:
		c.Likes--
	case ReactionDislike:
		c.Dislikes--
	}
	switch next {
	case ReactionLike:
		c.Likes++
	case ReactionDislike:
		c.Dislikes++
	}

	c.Likes = max(c.Likes, 0)
	c.Dislikes = max(c.Dislikes, 0)
	return c, next
}
