package chathub

import "medchat/backend/internal/models"

// Client is one live connection as seen by the registry and the lifecycle
// manager. It abstracts the transport so rooms can be tested without sockets.
type Client interface {
	// GetConnID returns the connection handle assigned at connect time.
	GetConnID() string
	// GetIdentity returns the authenticated identity that opened the connection.
	GetIdentity() models.Identity
	// Deliver queues an outbound frame without blocking. It returns false when
	// the connection is closed or its buffer is full.
	Deliver(event models.LiveEvent) bool
	// Run starts the connection's read and write pumps.
	Run()
	// Close stops outbound delivery and releases the connection. Safe to call twice.
	Close()
}
