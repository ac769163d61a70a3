package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_sent_total",
		Help: "Messages accepted and persisted.",
	})
	MessagesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_read_total",
		Help: "Messages marked read by their receiver.",
	})
	Aggregations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messaging_conversation_aggregations_total",
		Help: "Conversation list computations by cache outcome.",
	}, []string{"source"})
)

// Handler returns the http.Handler for Prometheus scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
