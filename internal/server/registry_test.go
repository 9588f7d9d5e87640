package server

import "testing"

func TestRegistryJoinAndResolve(t *testing.T) {
	reg := NewRegistry()
	match := reg.NewGame()

	socketId, joined, err := reg.Join(match.GameId, "frog")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joined != match {
		t.Fatalf("Join returned a different match than NewGame produced")
	}

	resolved, playerId, ok := reg.Resolve(socketId)
	if !ok {
		t.Fatalf("Resolve failed for a freshly joined socket")
	}
	if resolved != match {
		t.Fatalf("Resolve returned a different match than Join reserved against")
	}
	if playerId != 1 {
		t.Fatalf("playerId = %d, want 1 for the first joiner", playerId)
	}
}

func TestRegistryJoinUnknownGame(t *testing.T) {
	reg := NewRegistry()
	if _, _, err := reg.Join("no-such-game", "frog"); err == nil {
		t.Fatalf("expected an error joining a nonexistent game")
	}
}

func TestRegistryResolveUnknownSocket(t *testing.T) {
	reg := NewRegistry()
	if _, _, ok := reg.Resolve("no-such-socket"); ok {
		t.Fatalf("expected Resolve to fail for an unreserved socket id")
	}
}

func TestRegistryAssignsDistinctPlayerIds(t *testing.T) {
	reg := NewRegistry()
	match := reg.NewGame()

	firstSocket, _, err := reg.Join(match.GameId, "frog-one")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	secondSocket, _, err := reg.Join(match.GameId, "frog-two")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	_, firstId, _ := reg.Resolve(firstSocket)
	_, secondId, _ := reg.Resolve(secondSocket)
	if firstId == secondId {
		t.Fatalf("two joiners were handed the same player id %d", firstId)
	}
}
