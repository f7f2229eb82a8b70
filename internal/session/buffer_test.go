package session

import "testing"

func TestBufferOrderAndReplay(t *testing.T) {
	buf := NewBuffer(10)
	ev1 := buf.Append("a", "s1", 1, map[string]any{"n": 1})
	ev2 := buf.Append("b", "s1", 2, map[string]any{"n": 2})
	ev3 := buf.Append("c", "s1", 3, map[string]any{"n": 3})

	if ev1.EventID != "1" || ev2.EventID != "2" || ev3.EventID != "3" {
		t.Fatalf("unexpected event ids: %s %s %s", ev1.EventID, ev2.EventID, ev3.EventID)
	}
	replay, complete := buf.Since("1")
	if !complete || len(replay) != 2 || replay[0].EventID != "2" || replay[1].EventID != "3" {
		t.Fatalf("unexpected replay: complete=%v %+v", complete, replay)
	}
	if rest, complete := buf.Since("3"); !complete || len(rest) != 0 {
		t.Fatalf("expected nothing after the newest id, got complete=%v %+v", complete, rest)
	}
	all, complete := buf.Since("garbage")
	if complete || len(all) != 3 {
		t.Fatalf("bad id should replay the window as incomplete, got complete=%v len=%d", complete, len(all))
	}
	if _, complete := buf.Since("99"); complete {
		t.Fatal("an id from the future should not count as complete")
	}
}

func TestBufferWindowReportsGap(t *testing.T) {
	buf := NewBuffer(2)
	for i := 0; i < 5; i++ {
		buf.Append("e", "s1", int64(i), nil)
	}
	window, complete := buf.Since("")
	if !complete || len(window) != 2 || window[0].EventID != "4" {
		t.Fatalf("unexpected window: complete=%v %+v", complete, window)
	}
	if tail, complete := buf.Since("3"); !complete || len(tail) != 2 {
		t.Fatalf("id 3 is adjacent to the window, got complete=%v %+v", complete, tail)
	}
	if tail, complete := buf.Since("1"); complete || len(tail) != 2 {
		t.Fatalf("events 2..3 were trimmed, got complete=%v %+v", complete, tail)
	}
}

func TestBufferWatchAndClose(t *testing.T) {
	buf := NewBuffer(0)
	ch, cancel := buf.Watch()
	buf.Append("a", "s1", 1, nil)
	if ev := <-ch; ev.Event != "a" {
		t.Fatalf("unexpected live event %+v", ev)
	}
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected cancelled watcher to be closed")
	}

	kept, _ := buf.Watch()
	buf.Close()
	if _, ok := <-kept; ok {
		t.Fatal("expected closed watcher")
	}
	if ev := buf.Append("late", "s1", 1, nil); ev.EventID != "" {
		t.Fatalf("append after close should be a no-op, got %+v", ev)
	}
	late, _ := buf.Watch()
	if _, ok := <-late; ok {
		t.Fatal("watch after close should return a closed channel")
	}
}
