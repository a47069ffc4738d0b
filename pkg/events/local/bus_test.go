package local

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/winlab/netconflogger/pkg/events"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	got := make(chan events.Event, 1)
	sub := bus.Subscribe(events.TopicDeviceLifecycle, func(e events.Event) {
		got <- e
	})
	defer sub.Unsubscribe()

	bus.Publish(events.TopicDeviceLifecycle, events.Event{
		Source: "test",
		Data:   events.DeviceLifecycleEvent{Raw: "x"},
	})

	select {
	case e := <-got:
		if e.ID == "" {
			t.Error("expected generated event ID")
		}
		if e.Type != events.TopicDeviceLifecycle {
			t.Errorf("Type = %q, want topic", e.Type)
		}
		if e.Timestamp.IsZero() {
			t.Error("expected timestamp to be set")
		}
		if d, ok := e.Data.(events.DeviceLifecycleEvent); !ok || d.Raw != "x" {
			t.Errorf("Data = %#v", e.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var calls atomic.Int32
	sub := bus.Subscribe("topic", func(events.Event) { calls.Add(1) })

	bus.Publish("topic", events.Event{})
	waitFor(t, func() bool { return calls.Load() == 1 })

	sub.Unsubscribe()
	sub.Unsubscribe()

	if n := len(bus.Stats().Topics); n != 0 {
		t.Errorf("topics after unsubscribe = %d, want 0", n)
	}

	bus.Publish("topic", events.Event{})
	bus.Publish("other", events.Event{})
	waitFor(t, func() bool { return bus.Stats().PublishChLen == 0 })
	time.Sleep(20 * time.Millisecond)

	if calls.Load() != 1 {
		t.Errorf("handler called %d times after unsubscribe", calls.Load())
	}
}

func TestBus_SlowHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	block := make(chan struct{})
	var fast atomic.Int32

	bus.Subscribe("topic", func(e events.Event) {
		if e.Source == "slow" {
			<-block
			return
		}
		fast.Add(1)
	})

	bus.Publish("topic", events.Event{Source: "slow"})
	for i := 0; i < 10; i++ {
		bus.Publish("topic", events.Event{Source: "fast"})
	}

	waitFor(t, func() bool { return fast.Load() == 10 })
	close(block)
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var ok atomic.Bool
	bus.Subscribe("topic", func(e events.Event) {
		if e.Source == "bad" {
			panic("handler failure")
		}
		ok.Store(true)
	})

	bus.Publish("topic", events.Event{Source: "bad"})
	bus.Publish("topic", events.Event{Source: "good"})

	waitFor(t, ok.Load)
}

func TestBus_CountsPublishedAndDropped(t *testing.T) {
	bus := NewBusWithQueue(1)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	bus.Subscribe("topic", func(events.Event) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
	})

	bus.Publish("topic", events.Event{})
	<-started

	for i := 0; i < 1000; i++ {
		bus.Publish("topic", events.Event{})
	}

	stats := bus.Stats()
	if stats.Published+stats.Dropped != 1001 {
		t.Errorf("published %d + dropped %d != 1001", stats.Published, stats.Dropped)
	}

	close(block)
	bus.Close()

	bus.Publish("topic", events.Event{})
	if got := bus.Stats().Dropped; got != stats.Dropped+1 {
		t.Errorf("publish after Close not counted as dropped: %d", got)
	}
}
