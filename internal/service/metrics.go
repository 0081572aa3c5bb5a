package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dcr",
		Subsystem: "change_requests",
		Name:      "submissions_total",
		Help:      "Change request submissions broken down by result.",
	}, []string{"result"})

	taskActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dcr",
		Subsystem: "tasks",
		Name:      "actions_total",
		Help:      "Task actions broken down by action and result.",
	}, []string{"action", "result"})

	attachmentsUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dcr",
		Subsystem: "attachments",
		Name:      "uploaded_total",
		Help:      "Attachment files stored.",
	})

	attachmentBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dcr",
		Subsystem: "attachments",
		Name:      "uploaded_bytes_total",
		Help:      "Bytes of attachment content stored.",
	})
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
