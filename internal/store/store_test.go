package store

import "testing"

func TestRootIsOrderIndependent(t *testing.T) {
	a := NewKV()
	a.Put(PlayerKey([32]byte{1}), []byte("alice"))
	a.Put(PlayerKey([32]byte{2}), []byte("bob"))

	b := NewKV()
	b.Put(PlayerKey([32]byte{2}), []byte("bob"))
	b.Put(PlayerKey([32]byte{1}), []byte("alice"))

	if a.Root() != b.Root() {
		t.Fatalf("expected insertion-order-independent root")
	}
}

func TestRootChangesOnMutation(t *testing.T) {
	s := NewKV()
	root0 := s.Root()
	s.Put(PlayerKey([32]byte{1}), []byte("alice"))
	root1 := s.Root()
	if root0 == root1 {
		t.Fatalf("expected root to change after Put")
	}
	s.Delete(PlayerKey([32]byte{1}))
	root2 := s.Root()
	if root2 != root0 {
		t.Fatalf("expected root to return to empty-store value after delete")
	}
}

func TestSnapshotRestoreRoundtrip(t *testing.T) {
	s := NewKV()
	s.Put(PlayerKey([32]byte{9}), []byte("carol"))
	snap := s.Snapshot()

	r := NewKV()
	r.Restore(snap)
	if r.Root() != s.Root() {
		t.Fatalf("restored store root mismatch")
	}
}

func TestEventsRootOrderSensitive(t *testing.T) {
	e1 := NewEvents()
	e1.Append(Event{Height: 1, TxIdx: 0, Type: "a"})
	e1.Append(Event{Height: 1, TxIdx: 1, Type: "b"})

	e2 := NewEvents()
	e2.Append(Event{Height: 1, TxIdx: 1, Type: "b"})
	e2.Append(Event{Height: 1, TxIdx: 0, Type: "a"})

	if e1.Root(1) == e2.Root(1) {
		t.Fatalf("expected event root to be order-sensitive")
	}
}

func TestEventsRootEmptyHeight(t *testing.T) {
	e := NewEvents()
	e.Append(Event{Height: 2, TxIdx: 0, Type: "x"})
	if e.Root(1) != e.Root(3) {
		t.Fatalf("expected empty heights to hash identically")
	}
}
