package events

type Handler func(Event)

type Subscription interface {
	Unsubscribe()
}

type TopicStats struct {
	Topic       string `json:"topic"`
	Subscribers int    `json:"subscribers"`
}

type Stats struct {
	Topics       []TopicStats `json:"topics"`
	PublishChLen int          `json:"publish-channel-length" prometheus:"name=netconflogger_bus_queue_length,help=Events waiting for dispatch,type=gauge"`
	PublishChCap int          `json:"publish-channel-capacity" prometheus:"name=netconflogger_bus_queue_capacity,help=Capacity of the dispatch queue,type=gauge"`
	Published    uint64       `json:"published" prometheus:"name=netconflogger_bus_published_total,help=Events accepted by the bus,type=counter"`
	Dropped      uint64       `json:"dropped" prometheus:"name=netconflogger_bus_dropped_total,help=Events dropped by the bus,type=counter"`
	DebugTopics  []string     `json:"debug-topics,omitempty"`
}

type Bus interface {
	Publish(topic string, event Event)
	Subscribe(topic string, handler Handler) Subscription
	SubscribeAll(handler Handler) Subscription
	Stats() Stats
	SetDebugTopics(topics []string)
	DebugTopics() []string
	Close() error
}
