package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(turnsTotal, historyAppendsTotal, messagesSwept)
}

var (
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Completed chat turns by outcome (ok/search/completion/history/other).",
		},
		[]string{"outcome"},
	)

	historyAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_appends_total",
			Help: "Messages appended to the history store by role.",
		},
		[]string{"role"},
	)

	messagesSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "history_messages_swept_total",
			Help: "Messages deleted by the retention sweeper.",
		},
	)
)

func IncTurn(outcome string) {
	turnsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncHistoryAppend(role string) {
	historyAppendsTotal.WithLabelValues(norm(role)).Inc()
}

func AddMessagesSwept(n int64) {
	messagesSwept.Add(float64(n))
}
