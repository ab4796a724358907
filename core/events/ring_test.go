package events

import (
	"math/big"
	"testing"
)

func TestRingRetainsRecentEvents(t *testing.T) {
	ring := NewRing(2)
	ring.Emit(FeesCollected{Fee: big.NewInt(1)})
	ring.Emit(FeesCollected{Fee: big.NewInt(2)})
	ring.Emit(FeesCollected{Fee: big.NewInt(3)})

	recent := ring.Recent()
	if len(recent) != 2 {
		t.Fatalf("expected 2 retained events, got %d", len(recent))
	}
	if recent[0].Attributes["fee"] != "2" || recent[1].Attributes["fee"] != "3" {
		t.Fatalf("expected oldest-first [2 3], got [%s %s]", recent[0].Attributes["fee"], recent[1].Attributes["fee"])
	}
}

func TestRingPartialFill(t *testing.T) {
	ring := NewRing(4)
	ring.Emit(FeesCollected{Fee: big.NewInt(7)})
	recent := ring.Recent()
	if len(recent) != 1 {
		t.Fatalf("expected 1 event, got %d", len(recent))
	}
	if recent[0].Type != TypeFeesCollected {
		t.Fatalf("unexpected event type %q", recent[0].Type)
	}
}

func TestFanoutForwardsToAllSinks(t *testing.T) {
	first := NewRing(4)
	second := NewRing(4)
	fan := Fanout{first, second, nil}
	fan.Emit(FeesCollected{Fee: big.NewInt(5)})
	if len(first.Recent()) != 1 || len(second.Recent()) != 1 {
		t.Fatalf("expected both sinks to receive the event")
	}
}

func TestTransferEventMemoVariant(t *testing.T) {
	plain := Transfer{Amount: big.NewInt(1)}
	if plain.EventType() != TypeTransfer {
		t.Fatalf("expected plain transfer type, got %q", plain.EventType())
	}
	withMemo := Transfer{Amount: big.NewInt(1), Memo: "invoice-42"}
	if withMemo.EventType() != TypeTransferMemo {
		t.Fatalf("expected memo transfer type, got %q", withMemo.EventType())
	}
	rendered := withMemo.Event()
	if rendered.Attributes["memo"] != "invoice-42" {
		t.Fatalf("expected memo attribute, got %q", rendered.Attributes["memo"])
	}
}
