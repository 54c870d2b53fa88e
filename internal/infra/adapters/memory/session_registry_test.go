package memory

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestJoin_FirstTwoAccepted(t *testing.T) {
	r := NewSessionRegistry(2)

	first := uuid.New()
	second := uuid.New()

	result, members := r.Join("room-1", first)
	if result != JoinAccepted {
		t.Fatalf("first join: got %v, want JoinAccepted", result)
	}
	if len(members) != 1 {
		t.Fatalf("first join membership: got %d, want 1", len(members))
	}

	result, members = r.Join("room-1", second)
	if result != JoinAccepted {
		t.Fatalf("second join: got %v, want JoinAccepted", result)
	}
	if len(members) != 2 {
		t.Fatalf("second join membership: got %d, want 2", len(members))
	}

	// Insertion order preserved.
	if members[0] != first || members[1] != second {
		t.Fatalf("membership order: got %v, want [%s %s]", members, first, second)
	}
}

func TestJoin_ThirdRejectedFull(t *testing.T) {
	r := NewSessionRegistry(2)

	r.Join("room-1", uuid.New())
	r.Join("room-1", uuid.New())

	result, members := r.Join("room-1", uuid.New())
	if result != JoinRejectedFull {
		t.Fatalf("third join: got %v, want JoinRejectedFull", result)
	}
	if len(members) != 2 {
		t.Fatalf("membership after rejected join: got %d, want 2", len(members))
	}
}

func TestJoin_DuplicateRejected(t *testing.T) {
	r := NewSessionRegistry(2)

	participant := uuid.New()

	r.Join("room-1", participant)

	result, members := r.Join("room-1", participant)
	if result != JoinRejectedDuplicate {
		t.Fatalf("duplicate join: got %v, want JoinRejectedDuplicate", result)
	}
	if len(members) != 1 {
		t.Fatalf("membership after duplicate join: got %d, want 1", len(members))
	}
}

// A duplicate is reported as duplicate even when the room is full, so a
// re-sent join from a member can never surface as "room full".
func TestJoin_DuplicateWinsOverFull(t *testing.T) {
	r := NewSessionRegistry(2)

	participant := uuid.New()
	r.Join("room-1", participant)
	r.Join("room-1", uuid.New())

	result, _ := r.Join("room-1", participant)
	if result != JoinRejectedDuplicate {
		t.Fatalf("got %v, want JoinRejectedDuplicate", result)
	}
}

// Concurrent joins from many distinct participants must admit exactly the
// capacity, never more.
func TestJoin_ConcurrentNeverExceedsCapacity(t *testing.T) {
	const attempts = 16

	r := NewSessionRegistry(2)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		full     int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			result, members := r.Join("room-1", uuid.New())
			if len(members) > 2 {
				t.Errorf("membership observed at %d, want <= 2", len(members))
			}

			mu.Lock()
			defer mu.Unlock()
			switch result {
			case JoinAccepted:
				accepted++
			case JoinRejectedFull:
				full++
			}
		}()
	}

	wg.Wait()

	if accepted != 2 {
		t.Fatalf("accepted: got %d, want 2", accepted)
	}
	if full != attempts-2 {
		t.Fatalf("rejected full: got %d, want %d", full, attempts-2)
	}
}

func TestLeave_DeletesEmptyRoom(t *testing.T) {
	r := NewSessionRegistry(2)

	first := uuid.New()
	second := uuid.New()

	r.Join("room-1", first)
	r.Join("room-1", second)

	if !r.Leave("room-1", first) {
		t.Fatal("leave of a member reported not found")
	}
	if r.RoomCount() != 1 {
		t.Fatalf("room count after partial leave: got %d, want 1", r.RoomCount())
	}

	r.Leave("room-1", second)
	if r.RoomCount() != 0 {
		t.Fatalf("room count after room emptied: got %d, want 0", r.RoomCount())
	}

	// Rejoining re-creates fresh room state.
	result, members := r.Join("room-1", first)
	if result != JoinAccepted || len(members) != 1 {
		t.Fatalf("rejoin after room deletion: got %v with %d members", result, len(members))
	}
}

func TestLeave_NonMemberIsNoop(t *testing.T) {
	r := NewSessionRegistry(2)

	r.Join("room-1", uuid.New())

	if r.Leave("room-1", uuid.New()) {
		t.Fatal("leave of a non-member reported removed")
	}
	if r.Leave("no-such-room", uuid.New()) {
		t.Fatal("leave of an unknown room reported removed")
	}
}

func TestPeersOf_ExcludesAsker(t *testing.T) {
	r := NewSessionRegistry(2)

	first := uuid.New()
	second := uuid.New()

	r.Join("room-1", first)

	if peers := r.PeersOf("room-1", first); len(peers) != 0 {
		t.Fatalf("peers of sole member: got %v, want none", peers)
	}

	r.Join("room-1", second)

	peers := r.PeersOf("room-1", first)
	if len(peers) != 1 || peers[0] != second {
		t.Fatalf("peers: got %v, want [%s]", peers, second)
	}
}

func TestPeersOf_RemovedMemberNeverReturned(t *testing.T) {
	r := NewSessionRegistry(2)

	first := uuid.New()
	second := uuid.New()

	r.Join("room-1", first)
	r.Join("room-1", second)
	r.Leave("room-1", second)

	if peers := r.PeersOf("room-1", first); len(peers) != 0 {
		t.Fatalf("peers after leave: got %v, want none", peers)
	}
}

func TestRoomsOf(t *testing.T) {
	r := NewSessionRegistry(0)

	participant := uuid.New()

	r.Join("conv-1", participant)
	r.Join("conv-2", participant)

	rooms := r.RoomsOf(participant)
	if len(rooms) != 2 {
		t.Fatalf("rooms: got %v, want 2 entries", rooms)
	}

	r.Leave("conv-1", participant)
	r.Leave("conv-2", participant)

	if rooms := r.RoomsOf(participant); len(rooms) != 0 {
		t.Fatalf("rooms after leaving all: got %v, want none", rooms)
	}
}

func TestUnboundedCapacity(t *testing.T) {
	r := NewSessionRegistry(0)

	for i := 0; i < 10; i++ {
		result, _ := r.Join("conv-1", uuid.New())
		if result != JoinAccepted {
			t.Fatalf("join %d: got %v, want JoinAccepted", i, result)
		}
	}

	if peers := r.PeersOf("conv-1", uuid.Nil); len(peers) != 10 {
		t.Fatalf("members: got %d, want 10", len(peers))
	}
}
