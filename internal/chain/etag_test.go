package chain

import "testing"

func TestMatchETag(t *testing.T) {
	current := FeedsETag(42)
	cases := []struct {
		presented string
		want      bool
	}{
		{"*", true},
		{`W/"42"`, true},
		{`"42"`, true},
		{`W/"43"`, false},
		{`"43"`, false},
		{`42`, false},
		{"", false},
	}
	for _, tc := range cases {
		if got := MatchETag(tc.presented, current); got != tc.want {
			t.Fatalf("MatchETag(%q, %q) = %v, want %v", tc.presented, current, got, tc.want)
		}
	}
}

func TestMatchETagStripsOnlyWeakPrefix(t *testing.T) {
	// Without a W/ prefix on the current token only exact matches count.
	if MatchETag(`x"`, `"x"`) {
		t.Fatalf("unexpected match")
	}
	if !MatchETag(`"x"`, `"x"`) {
		t.Fatalf("expected exact match")
	}
}

func TestFeedsETagFormat(t *testing.T) {
	if got := FeedsETag(0); got != EmptyFeedsETag {
		t.Fatalf("got %q", got)
	}
	if got := FeedsETag(-7); got != `W/"-7"` {
		t.Fatalf("got %q", got)
	}
}

func TestRevisionChangesOnBump(t *testing.T) {
	r := revision{tag: 'd', epoch: 17}
	before := r.ETag()
	if before != `W/"d17.0"` {
		t.Fatalf("unexpected token %q", before)
	}
	r.bump()
	if r.ETag() == before {
		t.Fatalf("expected token to change")
	}
}
