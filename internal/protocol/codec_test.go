package protocol

import (
	"reflect"
	"testing"

	"crossyarena/server/internal/arena"
	"crossyarena/server/internal/coords"
	"crossyarena/server/internal/playerid"
)

func TestEncodeDecodeClientHello(t *testing.T) {
	want := ClientHello{UserId: "abc", HashCheck: 42}
	frame, err := Encode(KindClientHello, want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	kind, dec, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if kind != KindClientHello {
		t.Fatalf("kind = %v, want KindClientHello", kind)
	}

	var got ClientHello
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestEncodeDecodeServerTick(t *testing.T) {
	pushedBy := playerid.PlayerId(1)
	want := ServerTick{
		ExactSendServerTimeUs: 123456,
		Latest: PlayerSnapshot{
			TimeUs: 7000,
			States: []arena.PlayerState{
				{
					Id:  0,
					Pos: coords.CoordPos(3, 4),
					Move: arena.MoveState{
						Kind: arena.MoveMoving,
						Moving: arena.MovingState{
							RemainingUs: 200,
							Target:      coords.CoordPos(3, 3),
							Push:        arena.PushInfo{PushedBy: &pushedBy},
						},
					},
				},
			},
		},
		RuleState: arena.RulesSnapshot{
			Kind:      arena.FstRound,
			RoundId:   2,
			ScreenY:   -5,
			WinCounts: []arena.WinCount{{Id: 0, Count: 1}},
		},
	}

	frame, err := Encode(KindServerTick, want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	kind, dec, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if kind != KindServerTick {
		t.Fatalf("kind = %v, want KindServerTick", kind)
	}

	var got ServerTick
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("payload decode: %v", err)
	}

	if got.ExactSendServerTimeUs != want.ExactSendServerTimeUs {
		t.Fatalf("ExactSendServerTimeUs = %d, want %d", got.ExactSendServerTimeUs, want.ExactSendServerTimeUs)
	}
	if !reflect.DeepEqual(got.Latest, want.Latest) {
		t.Fatalf("Latest = %+v, want %+v", got.Latest, want.Latest)
	}
	if !reflect.DeepEqual(got.RuleState, want.RuleState) {
		t.Fatalf("RuleState = %+v, want %+v", got.RuleState, want.RuleState)
	}
	if *got.Latest.States[0].Move.Moving.Push.PushedBy != pushedBy {
		t.Fatalf("push attribution lost across the wire")
	}
}

func TestDecodeEmptyFrame(t *testing.T) {
	if _, _, err := Decode(nil); err == nil {
		t.Fatalf("expected an error decoding an empty frame")
	}
}

func TestKindString(t *testing.T) {
	if KindGoodBye.String() != "GoodBye" {
		t.Fatalf("String() = %q, want %q", KindGoodBye.String(), "GoodBye")
	}
	if Kind(250).String() != "Unknown" {
		t.Fatalf("String() on an unrecognized kind should fall back to Unknown")
	}
}
