package config

import "time"

const (
	// Messages
	MaxMessageBodyLength = 4000 // runes, after trimming

	// Store retries
	CreateConversationAttempts = 3
	AppendAttempts             = 3

	// Live channel
	WriteWait        = 10 * time.Second
	PongWait         = 60 * time.Second
	PingPeriod       = (PongWait * 9) / 10
	MaxFrameSize     = 8192
	ClientSendBuffer = 256

	// Directory cache key prefix, followed by "<role>:<id>"
	DisplayNameCachePrefix = "displayname:"
)
