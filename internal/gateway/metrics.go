package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesAppendedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medchat_messages_appended_total",
		Help: "Messages persisted through the durable API, by sender role.",
	}, []string{"role"})
	conversationsOpenedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medchat_conversations_opened_total",
		Help: "Get-or-create requests that had to create a new conversation.",
	})
	accessDeniedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medchat_access_denied_total",
		Help: "Requests rejected because the caller is not a participant.",
	}, []string{"operation"})
)
