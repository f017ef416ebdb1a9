package mixer

import "testing"

func TestPlayOpensDecoderAndStartsIt(t *testing.T) {
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, nil)

	if err := ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus", Name: "a"}, false); err != nil {
		t.Fatalf("Play: %v", err)
	}
	ch := ctx.channels[0]
	if ch.playing.empty() {
		t.Fatal("Play left the playing slot empty")
	}
	dec := ch.playing.decoder.(*fakeDecoder)
	if !dec.started {
		t.Fatal("Play did not Start the decoder")
	}
	if ctx.ErrorCode() != Success {
		t.Fatalf("ErrorCode() = %v, want Success", ctx.ErrorCode())
	}
}

func TestPlayRetiresPreviousSlots(t *testing.T) {
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, nil)
	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus"}, false)
	first := ctx.channels[0].playing.decoder.(*fakeDecoder)

	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus"}, false)
	ctx.Reap()

	if !first.closed {
		t.Fatal("replaying a channel should eventually close the previous decoder via the dying list")
	}
}

func TestQueueOnEmptyChannelBehavesLikePlay(t *testing.T) {
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, nil)

	if err := ctx.Queue(0, PlayParams{Source: nopSource{}, Ext: "opus"}); err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if ctx.channels[0].playing.empty() {
		t.Fatal("Queue on an empty channel should populate the playing slot")
	}
	if !ctx.channels[0].queued.empty() {
		t.Fatal("Queue on an empty channel should leave the queued slot empty")
	}
}

func TestQueueOnOccupiedChannelFillsQueuedSlot(t *testing.T) {
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, nil)
	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus"}, false)
	playingBefore := ctx.channels[0].playing.decoder

	ctx.Queue(0, PlayParams{Source: nopSource{}, Ext: "opus"})

	if ctx.channels[0].playing.decoder != playingBefore {
		t.Fatal("Queue should not disturb an already-playing slot")
	}
	if ctx.channels[0].queued.empty() {
		t.Fatal("Queue should populate the queued slot")
	}
}

func TestStopClearsBothSlotsAndPostsEvent(t *testing.T) {
	sink := &fakeEventSink{}
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, sink)
	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus"}, false)
	ctx.SetEndEvent(0, 9)
	ctx.Queue(0, PlayParams{Source: nopSource{}, Ext: "opus"})

	if err := ctx.Stop(0); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !ctx.channels[0].playing.empty() || !ctx.channels[0].queued.empty() {
		t.Fatal("Stop should clear both slots")
	}
	if len(sink.events) != 1 || sink.events[0].event != 9 {
		t.Fatalf("events = %+v, want one event tagged 9", sink.events)
	}
}

func TestStopOnEmptyChannelIsNoop(t *testing.T) {
	ctx := NewContext(48000, &fakeFactory{}, nil)
	if err := ctx.Stop(0); err != nil {
		t.Fatalf("Stop on an auto-allocated empty channel returned %v", err)
	}
}

func TestDequeueRespectsTightFlag(t *testing.T) {
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, nil)
	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus", Tight: true}, false)
	ctx.Queue(0, PlayParams{Source: nopSource{}, Ext: "opus"})

	if err := ctx.Dequeue(0, false); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if ctx.channels[0].queued.empty() {
		t.Fatal("Dequeue(evenTight=false) should not remove a queued slot behind a tight playing stream")
	}

	if err := ctx.Dequeue(0, true); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if !ctx.channels[0].queued.empty() {
		t.Fatal("Dequeue(evenTight=true) should remove the queued slot")
	}
}

func TestDequeueOfTightQueueWithoutOverrideClearsTightFlagOnly(t *testing.T) {
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, nil)
	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus", Tight: true}, false)
	ctx.Queue(0, PlayParams{Source: nopSource{}, Ext: "opus", Tight: true})

	ctx.Dequeue(0, false)

	if ctx.channels[0].queued.empty() {
		t.Fatal("queued slot should survive a non-overriding dequeue behind a tight playing stream")
	}
	if ctx.channels[0].queued.tight {
		t.Fatal("dequeue should have cleared the queued slot's own tight flag")
	}
}

func TestFadeoutZeroSchedulesImmediateStop(t *testing.T) {
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, nil)
	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus"}, false)

	if err := ctx.Fadeout(0, 0); err != nil {
		t.Fatalf("Fadeout: %v", err)
	}
	if ctx.channels[0].stopSamples != 0 {
		t.Fatalf("stopSamples = %d, want 0", ctx.channels[0].stopSamples)
	}
}

func TestFadeoutArmsStopCountdown(t *testing.T) {
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, nil)
	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus"}, false)

	if err := ctx.Fadeout(0, 1000); err != nil {
		t.Fatalf("Fadeout: %v", err)
	}
	if ctx.channels[0].stopSamples != 48000 {
		t.Fatalf("stopSamples = %d, want 48000", ctx.channels[0].stopSamples)
	}
}

func TestPauseUnpauseRoundTripIsNoop(t *testing.T) {
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, nil)
	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus"}, false)

	if err := ctx.Pause(0, true); err != nil {
		t.Fatalf("Pause(true): %v", err)
	}
	if !ctx.channels[0].paused {
		t.Fatal("channel should report paused")
	}
	if err := ctx.Pause(0, false); err != nil {
		t.Fatalf("Pause(false): %v", err)
	}
	if ctx.channels[0].paused {
		t.Fatal("channel should report unpaused")
	}
}

func TestSetVolumeGetVolumeRoundTrip(t *testing.T) {
	ctx := NewContext(48000, &fakeFactory{}, nil)
	if err := ctx.SetVolume(0, 0.25); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	got, err := ctx.GetVolume(0)
	if err != nil {
		t.Fatalf("GetVolume: %v", err)
	}
	if got != 0.25 {
		t.Fatalf("GetVolume() = %v, want 0.25", got)
	}
}

func TestQueueDepthReportsOccupancy(t *testing.T) {
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, nil)

	if depth, err := ctx.QueueDepth(0); err != nil || depth != 0 {
		t.Fatalf("QueueDepth() = (%d, %v), want (0, nil)", depth, err)
	}
	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus"}, false)
	if depth, _ := ctx.QueueDepth(0); depth != 1 {
		t.Fatalf("QueueDepth() = %d, want 1", depth)
	}
	ctx.Queue(0, PlayParams{Source: nopSource{}, Ext: "opus"})
	if depth, _ := ctx.QueueDepth(0); depth != 2 {
		t.Fatalf("QueueDepth() = %d, want 2", depth)
	}
}

func TestPlayingNameReportsCurrentStream(t *testing.T) {
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, nil)

	if _, ok, err := ctx.PlayingName(0); err != nil || ok {
		t.Fatalf("PlayingName() on empty channel = (_, %v, %v), want (_, false, nil)", ok, err)
	}
	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus", Name: "track.opus"}, false)
	name, ok, err := ctx.PlayingName(0)
	if err != nil || !ok || name != "track.opus" {
		t.Fatalf("PlayingName() = (%q, %v, %v), want (\"track.opus\", true, nil)", name, ok, err)
	}
}

func TestGetPosReflectsStartOffset(t *testing.T) {
	factory := &fakeFactory{frames: 10, value: 1}
	ctx := NewContext(48000, factory, nil)
	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus", StartSeconds: 2.0}, false)

	pos, err := ctx.GetPos(0)
	if err != nil {
		t.Fatalf("GetPos: %v", err)
	}
	if pos != 2000 {
		t.Fatalf("GetPos() = %d, want 2000", pos)
	}
}

func TestGetPosOnEmptyChannelReportsNegativeOne(t *testing.T) {
	ctx := NewContext(48000, &fakeFactory{}, nil)
	pos, err := ctx.GetPos(0)
	if err != nil {
		t.Fatalf("GetPos: %v", err)
	}
	if pos != -1 {
		t.Fatalf("GetPos() = %d, want -1", pos)
	}
}

func TestPlayWithFailingDecoderReturnsCodecError(t *testing.T) {
	ctx := NewContext(48000, &fakeFactory{fail: true}, nil)
	err := ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus"}, false)
	if err == nil {
		t.Fatal("expected an error from a failing decoder factory")
	}
	if ctx.ErrorCode() != CodecError {
		t.Fatalf("ErrorCode() = %v, want CodecError", ctx.ErrorCode())
	}
}

func TestNegativeChannelIndexIsRejected(t *testing.T) {
	ctx := NewContext(48000, &fakeFactory{}, nil)
	if err := ctx.SetVolume(-1, 1.0); err == nil {
		t.Fatal("expected an error for a negative channel index")
	}
	if ctx.ErrorCode() != GenericError {
		t.Fatalf("ErrorCode() = %v, want GenericError", ctx.ErrorCode())
	}
}

func TestChannelTableGrowsAndKeepsIndicesStable(t *testing.T) {
	ctx := NewContext(48000, &fakeFactory{frames: 1, value: 1}, nil)
	ctx.Play(0, PlayParams{Source: nopSource{}, Ext: "opus"}, false)
	first := ctx.channels[0]

	ctx.SetVolume(5, 0.5)
	if len(ctx.channels) != 6 {
		t.Fatalf("len(channels) = %d, want 6", len(ctx.channels))
	}
	if ctx.channels[0] != first {
		t.Fatal("growing the channel table should not reallocate existing channels")
	}
}

func TestVideoReadyOnEmptyChannelIsTrue(t *testing.T) {
	ctx := NewContext(48000, &fakeFactory{}, nil)
	ready, err := ctx.VideoReady(0)
	if err != nil {
		t.Fatalf("VideoReady: %v", err)
	}
	if !ready {
		t.Fatal("VideoReady on an empty channel should report true (nothing to wait for)")
	}
}
