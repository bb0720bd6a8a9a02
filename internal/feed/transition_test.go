package feed

import "testing"

func TestApplyReaction_TransitionTable(t *testing.T) {
	base := Counts{Comments: 4, Likes: 10, Dislikes: 5, Quotes: 1}

	tests := []struct {
		current, desired, want  Reaction
		likeDelta, dislikeDelta int64
	}{
		{ReactionNone, ReactionLike, ReactionLike, 1, 0},
		{ReactionNone, ReactionDislike, ReactionDislike, 0, 1},
		{ReactionLike, ReactionLike, ReactionNone, -1, 0},
		{ReactionLike, ReactionDislike, ReactionDislike, -1, 1},
		{ReactionDislike, ReactionDislike, ReactionNone, 0, -1},
		{ReactionDislike, ReactionLike, ReactionLike, 1, -1},
	}
	for _, tt := range tests {
		t.Run(string(tt.current)+"->"+string(tt.desired), func(t *testing.T) {
			got, next := ApplyReaction(base, tt.current, tt.desired)

			if next != tt.want {
				t.Errorf("reaction = %s, want %s", next, tt.want)
			}
			if got.Likes != base.Likes+tt.likeDelta {
				t.Errorf("likes = %d, want %d", got.Likes, base.Likes+tt.likeDelta)
			}
			if got.Dislikes != base.Dislikes+tt.dislikeDelta {
				t.Errorf("dislikes = %d, want %d", got.Dislikes, base.Dislikes+tt.dislikeDelta)
			}
			if got.Comments != base.Comments || got.Quotes != base.Quotes {
				t.Error("reactions should not touch comment or quote counts")
			}
		})
	}
}

func TestApplyReaction_LikeTwiceRoundTrips(t *testing.T) {
	start := Counts{Likes: 3, Dislikes: 1}

	c, r := ApplyReaction(start, ReactionNone, ReactionLike)
	c, r = ApplyReaction(c, r, ReactionLike)

	if c != start || r != ReactionNone {
		t.Errorf("like then like should restore %+v/NONE, got %+v/%s", start, c, r)
	}
}

func TestApplyReaction_NeverGoesNegative(t *testing.T) {
	c, r := ApplyReaction(Counts{}, ReactionDislike, ReactionLike)

	if c.Dislikes != 0 {
		t.Errorf("dislikes should stay at 0 for inconsistent server data, got %d", c.Dislikes)
	}
	if c.Likes != 1 || r != ReactionLike {
		t.Errorf("like should still apply, got %+v/%s", c, r)
	}
}
