package events

const (
	TopicDeviceLifecycle = "netconflogger:events:device:lifecycle"
)
