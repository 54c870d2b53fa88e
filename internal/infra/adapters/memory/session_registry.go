package memory

import (
	"sync"

	"github.com/google/uuid"
)

// JoinResult is the typed outcome of a registry join.
type JoinResult int

const (
	JoinAccepted JoinResult = iota
	JoinRejectedFull
	JoinRejectedDuplicate
)

// SessionRegistry maps a room id to its ordered live membership. Rooms exist
// implicitly: created on first join, deleted when the last member leaves.
// Nothing is persisted; a process restart drops every room.
type SessionRegistry interface {
	// Join adds the participant and returns the resulting membership in
	// insertion order. The check-and-insert is atomic, so concurrent joins
	// can never both land in the last slot.
	Join(roomID string, participantID uuid.UUID) (JoinResult, []uuid.UUID)

	// Leave removes the participant and deletes the room entry when it
	// becomes empty. Reports whether the participant was a member.
	Leave(roomID string, participantID uuid.UUID) bool

	// PeersOf returns the members of the room other than the given one.
	PeersOf(roomID string, excluding uuid.UUID) []uuid.UUID

	// RoomsOf returns every room the participant currently belongs to,
	// used by disconnect cleanup.
	RoomsOf(participantID uuid.UUID) []string

	// RoomCount reports the number of live rooms.
	RoomCount() int
}

type sessionRegistry struct {
	// capacity limits members per room; zero means unbounded.
	capacity int

	rooms    map[string][]uuid.UUID
	byMember map[uuid.UUID]map[string]struct{}

	mu sync.Mutex
}

func NewSessionRegistry(capacity int) SessionRegistry {
	return &sessionRegistry{
		capacity: capacity,
		rooms:    make(map[string][]uuid.UUID),
		byMember: make(map[uuid.UUID]map[string]struct{}),
	}
}

func (r *sessionRegistry) Join(roomID string, participantID uuid.UUID) (JoinResult, []uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[roomID]

	for _, id := range members {
		if id == participantID {
			return JoinRejectedDuplicate, cloneMembers(members)
		}
	}

	if r.capacity > 0 && len(members) >= r.capacity {
		return JoinRejectedFull, cloneMembers(members)
	}

	members = append(members, participantID)
	r.rooms[roomID] = members

	if _, ok := r.byMember[participantID]; !ok {
		r.byMember[participantID] = make(map[string]struct{})
	}
	r.byMember[participantID][roomID] = struct{}{}

	return JoinAccepted, cloneMembers(members)
}

func (r *sessionRegistry) Leave(roomID string, participantID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return false
	}

	removed := false
	for i, id := range members {
		if id == participantID {
			r.rooms[roomID] = append(members[:i], members[i+1:]...)
			removed = true
			break
		}
	}

	if !removed {
		return false
	}

	if len(r.rooms[roomID]) == 0 {
		delete(r.rooms, roomID)
	}

	delete(r.byMember[participantID], roomID)
	if len(r.byMember[participantID]) == 0 {
		delete(r.byMember, participantID)
	}

	return true
}

func (r *sessionRegistry) PeersOf(roomID string, excluding uuid.UUID) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var peers []uuid.UUID
	for _, id := range r.rooms[roomID] {
		if id != excluding {
			peers = append(peers, id)
		}
	}

	return peers
}

func (r *sessionRegistry) RoomsOf(participantID uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]string, 0, len(r.byMember[participantID]))
	for roomID := range r.byMember[participantID] {
		rooms = append(rooms, roomID)
	}

	return rooms
}

func (r *sessionRegistry) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rooms)
}

func cloneMembers(members []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, len(members))
	copy(out, members)
	return out
}
