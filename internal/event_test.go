package internal

import (
	"sync"
	"testing"
	"time"
)

func TestEventQueueOrder(t *testing.T) {
	q := NewEventQueue()

	q.Enqueue(ButtonPressed{ID: 1})
	q.Enqueue(ButtonHeld{ID: 1, Duration: time.Second})
	q.Enqueue(VoiceCommand{Text: "hello"})

	for i, want := range []string{"button_pressed", "button_held", "voice_command"} {
		event, ok := q.Dequeue()
		if !ok {
			t.Fatalf("dequeue %d: queue reported closed", i)
		}
		if got := eventName(event); got != want {
			t.Errorf("dequeue %d = %s, want %s", i, got, want)
		}
	}
}

func TestEventQueueBlocksUntilEnqueue(t *testing.T) {
	q := NewEventQueue()
	got := make(chan Event, 1)

	go func() {
		event, ok := q.Dequeue()
		if ok {
			got <- event
		}
	}()

	// Give the consumer time to park before producing.
	time.Sleep(20 * time.Millisecond)
	q.Enqueue(VoiceCommand{Text: "wake up"})

	select {
	case event := <-got:
		vc, ok := event.(VoiceCommand)
		if !ok || vc.Text != "wake up" {
			t.Errorf("got %#v, want VoiceCommand{wake up}", event)
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue never woke up")
	}
}

func TestEventQueueDrainsAfterClose(t *testing.T) {
	q := NewEventQueue()
	q.Enqueue(ButtonPressed{ID: 1})
	q.Enqueue(ButtonPressed{ID: 2})
	q.Close()

	if _, ok := q.Dequeue(); !ok {
		t.Fatal("expected first buffered event after close")
	}
	if _, ok := q.Dequeue(); !ok {
		t.Fatal("expected second buffered event after close")
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("expected closed signal once drained")
	}
}

func TestEventQueueDropsAfterClose(t *testing.T) {
	q := NewEventQueue()
	if !q.Enqueue(ButtonPressed{ID: 1}) {
		t.Fatal("enqueue before close should be accepted")
	}
	q.Close()
	if q.Enqueue(ButtonPressed{ID: 9}) {
		t.Fatal("enqueue after close should report rejection")
	}

	if _, ok := q.Dequeue(); !ok {
		t.Fatal("expected the event enqueued before close")
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatal("event enqueued after close should be dropped")
	}
	if q.Len() != 0 {
		t.Errorf("len = %d, want 0", q.Len())
	}
}

func TestEventQueueConcurrentProducers(t *testing.T) {
	q := NewEventQueue()
	const producers = 8
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(VoiceCommand{Text: "x"})
			}
		}()
	}
	wg.Wait()
	q.Close()

	count := 0
	for {
		_, ok := q.Dequeue()
		if !ok {
			break
		}
		count++
	}

	if count != producers*perProducer {
		t.Errorf("consumed %d events, want %d", count, producers*perProducer)
	}
}
