package local

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/winlab/netconflogger/pkg/events"
	"github.com/winlab/netconflogger/pkg/logger"
)

const DefaultQueueSize = 10000

type publishRequest struct {
	topic string
	event events.Event
}

type subscription struct {
	id      uint64
	handler events.Handler
}

type sub struct {
	bus   *Bus
	topic string
	id    uint64
	once  sync.Once
}

func (s *sub) Unsubscribe() {
	s.once.Do(func() { s.bus.removeSub(s.topic, s.id) })
}

type globalSub struct {
	bus  *Bus
	id   uint64
	once sync.Once
}

func (s *globalSub) Unsubscribe() {
	s.once.Do(func() { s.bus.removeGlobalSub(s.id) })
}

// Bus is an in-process events.Bus. Publish never blocks: events are queued
// and every handler runs on its own goroutine, so a slow handler only delays
// itself.
type Bus struct {
	ctx         context.Context
	cancel      context.CancelFunc
	subs        map[string]map[uint64]*subscription
	globalSubs  map[uint64]*subscription
	mu          sync.RWMutex
	nextID      atomic.Uint64
	publishCh   chan publishRequest
	logger      *slog.Logger
	published   atomic.Uint64
	dropped     atomic.Uint64
	debugTopics map[string]bool
	debugSub    events.Subscription
	handlers    sync.WaitGroup
	loopDone    chan struct{}
}

func NewBus() *Bus {
	return NewBusWithQueue(DefaultQueueSize)
}

func NewBusWithQueue(size int) *Bus {
	if size <= 0 {
		size = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())

	b := &Bus{
		ctx:        ctx,
		cancel:     cancel,
		subs:       make(map[string]map[uint64]*subscription),
		globalSubs: make(map[uint64]*subscription),
		publishCh:  make(chan publishRequest, size),
		logger:     logger.Get(logger.Events),
		loopDone:   make(chan struct{}),
	}

	go b.publishLoop()

	return b
}

func (b *Bus) Publish(topic string, event events.Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Type == "" {
		event.Type = topic
	}

	if b.ctx.Err() != nil {
		b.dropped.Add(1)
		return
	}

	select {
	case b.publishCh <- publishRequest{topic: topic, event: event}:
		b.published.Add(1)
	default:
		b.dropped.Add(1)
		b.logger.Warn("Publish channel full, dropping event", "topic", topic, "event_id", event.ID)
	}
}

func (b *Bus) publishLoop() {
	defer close(b.loopDone)
	for {
		select {
		case <-b.ctx.Done():
			return
		case req := <-b.publishCh:
			b.dispatch(req)
		}
	}
}

func (b *Bus) dispatch(req publishRequest) {
	b.mu.RLock()
	topicSubs := b.subs[req.topic]
	handlers := make([]events.Handler, 0, len(topicSubs)+len(b.globalSubs))
	for _, s := range topicSubs {
		handlers = append(handlers, s.handler)
	}
	for _, s := range b.globalSubs {
		handlers = append(handlers, s.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.handlers.Add(1)
		go b.run(h, req)
	}
}

func (b *Bus) run(h events.Handler, req publishRequest) {
	defer b.handlers.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked", "topic", req.topic, "event_id", req.event.ID, "panic", r)
		}
	}()
	h(req.event)
}

func (b *Bus) Subscribe(topic string, handler events.Handler) events.Subscription {
	id := b.nextID.Add(1)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]*subscription)
	}
	b.subs[topic][id] = &subscription{id: id, handler: handler}
	handlerCount := len(b.subs[topic])
	b.mu.Unlock()

	b.logger.Info("Subscribed to topic", "topic", topic, "handler_count", handlerCount)

	return &sub{bus: b, topic: topic, id: id}
}

func (b *Bus) SubscribeAll(handler events.Handler) events.Subscription {
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.globalSubs[id] = &subscription{id: id, handler: handler}
	count := len(b.globalSubs)
	b.mu.Unlock()

	b.logger.Info("Subscribed to all topics", "global_subscriber_count", count)

	return &globalSub{bus: b, id: id}
}

func (b *Bus) removeSub(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if topicSubs, ok := b.subs[topic]; ok {
		delete(topicSubs, id)
		if len(topicSubs) == 0 {
			delete(b.subs, topic)
		}
	}
	b.logger.Info("Unsubscribed from topic", "topic", topic)
}

func (b *Bus) removeGlobalSub(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.globalSubs, id)
}

func (b *Bus) Stats() events.Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topics := make([]events.TopicStats, 0, len(b.subs))
	for topic, subs := range b.subs {
		topics = append(topics, events.TopicStats{
			Topic:       topic,
			Subscribers: len(subs),
		})
	}

	var debugTopics []string
	for t := range b.debugTopics {
		debugTopics = append(debugTopics, t)
	}

	return events.Stats{
		Topics:       topics,
		PublishChLen: len(b.publishCh),
		PublishChCap: cap(b.publishCh),
		Published:    b.published.Load(),
		Dropped:      b.dropped.Load(),
		DebugTopics:  debugTopics,
	}
}

func (b *Bus) SetDebugTopics(topics []string) {
	b.mu.Lock()

	if len(topics) == 0 {
		b.debugTopics = nil
		oldSub := b.debugSub
		b.debugSub = nil
		b.mu.Unlock()
		if oldSub != nil {
			oldSub.Unsubscribe()
		}
		b.logger.Info("Event debug logging disabled")
		return
	}

	b.debugTopics = make(map[string]bool, len(topics))
	for _, t := range topics {
		b.debugTopics[t] = true
	}

	needSub := b.debugSub == nil
	b.mu.Unlock()

	if needSub {
		sub := b.SubscribeAll(func(e events.Event) {
			b.mu.RLock()
			match := b.debugTopics[e.Type]
			b.mu.RUnlock()
			if match {
				b.logger.Info("Event", "topic", e.Type, "source", e.Source, "data", e.Data)
			}
		})
		b.mu.Lock()
		b.debugSub = sub
		b.mu.Unlock()
	}

	b.logger.Info("Event debug logging enabled", "topics", topics)
}

func (b *Bus) DebugTopics() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.debugTopics) == 0 {
		return nil
	}

	topics := make([]string, 0, len(b.debugTopics))
	for t := range b.debugTopics {
		topics = append(topics, t)
	}
	return topics
}

// Close stops dispatching and waits for running handlers. Events still queued
// are dropped.
func (b *Bus) Close() error {
	b.cancel()
	<-b.loopDone
	b.handlers.Wait()
	return nil
}
