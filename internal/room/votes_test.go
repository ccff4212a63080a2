package room

import (
	"reflect"
	"strings"
	"testing"
)

func TestSanitizeCategories(t *testing.T) {
	long := strings.Repeat("x", 80)
	raw := []any{"  Science ", 42, "Art", "Science", true, long, "History", "Music", "Film"}

	got := sanitizeCategories(raw, 5)

	want := []string{"Science", "Art", strings.Repeat("x", 50), "History", "Music"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for _, c := range got {
		if len([]rune(c)) > 50 {
			t.Fatalf("entry longer than 50 characters: %q", c)
		}
	}
}

func TestSanitizeDropsEmptyAfterTrim(t *testing.T) {
	got := sanitizeCategories([]any{"   ", "Art"}, 5)
	if !reflect.DeepEqual(got, []string{"Art"}) {
		t.Fatalf("got %v", got)
	}
}

func TestTallyDeterminism(t *testing.T) {
	votes := map[string][]string{
		"d1": {"Science", "Art"},
		"d2": {"Science"},
	}
	got := TallyVotes(votes)
	want := []CategoryTally{{Category: "Science", Count: 2}, {Category: "Art", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTallyTieBreaksByName(t *testing.T) {
	votes := map[string][]string{
		"d1": {"Zoology", "Art"},
		"d2": {"Music"},
	}
	got := TallyVotes(votes)
	want := []CategoryTally{
		{Category: "Art", Count: 1},
		{Category: "Music", Count: 1},
		{Category: "Zoology", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSubmitVoteReplacesWholeSet(t *testing.T) {
	h, transport, _ := newTestHub(t)
	newRoom(t, h, "r1", "admin")
	addMember(t, h, "r1", "guest", "Guest")

	h.SubmitVote("r1", "guest", []any{"Science", "Art"})
	h.SubmitVote("r1", "guest", []any{"Music"})

	ev, _ := transport.last(EventChannelUpdate)
	tally := ev.payload.(*RoomView).CategoryTally
	want := []CategoryTally{{Category: "Music", Count: 1}}
	if !reflect.DeepEqual(tally, want) {
		t.Fatalf("vote set should be replaced wholesale, got %v", tally)
	}
}

func TestSubmitVoteAfterCloseIgnored(t *testing.T) {
	h, transport, _ := newTestHub(t)
	newRoom(t, h, "r1", "admin")
	addMember(t, h, "r1", "guest", "Guest")

	h.CloseVoting("r1", "admin")
	transport.reset()

	h.SubmitVote("r1", "guest", []any{"Science"})
	if _, ok := transport.last(EventChannelUpdate); ok {
		t.Fatal("vote after closing should be a silent no-op")
	}
}

func TestCloseVotingRequiresAdmin(t *testing.T) {
	h, transport, _ := newTestHub(t)
	newRoom(t, h, "r1", "admin")
	addMember(t, h, "r1", "guest", "Guest")
	transport.reset()

	h.CloseVoting("r1", "guest")
	if _, ok := transport.last(EventChannelUpdate); ok {
		t.Fatal("non-admin close should be a silent no-op")
	}

	h.CloseVoting("r1", "admin")
	ev, ok := transport.last(EventChannelUpdate)
	if !ok || !ev.payload.(*RoomView).IsVotingClosed {
		t.Fatal("admin close should flip the flag")
	}

	// Repeated close: no further update.
	transport.reset()
	h.CloseVoting("r1", "admin")
	if _, ok := transport.last(EventChannelUpdate); ok {
		t.Fatal("repeated close should be a no-op")
	}
}

func TestVoteNonMemberIgnored(t *testing.T) {
	h, transport, _ := newTestHub(t)
	newRoom(t, h, "r1", "admin")
	h.RegisterDevice("lurker", &fakeConn{id: "c"}, "en")
	transport.reset()

	h.SubmitVote("r1", "lurker", []any{"Science"})
	if _, ok := transport.last(EventChannelUpdate); ok {
		t.Fatal("non-member vote should be ignored")
	}
}
