// Package metrics exposes participation engine counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"eventparticipation/internal/domain"
)

// Join outcomes used as the "outcome" label.
const (
	OutcomeRegistered = "registered"
	OutcomeWaitlisted = "waitlisted"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
)

// Delivery results used as the "result" label.
const (
	ResultDelivered = "delivered"
	ResultFailed    = "failed"
	ResultDropped   = "dropped"
)

// Recorder records engine activity.
type Recorder interface {
	JoinCompleted(outcome string)
	LeaveCompleted(promoted bool)
	NotificationHandled(t domain.NotificationType, result string)
	CancellationFanout(notified int)
	ObserveOperation(op string, d time.Duration)
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) JoinCompleted(string) {}
func (NoOp) LeaveCompleted(bool) {}
func (NoOp) NotificationHandled(domain.NotificationType, string) {}
func (NoOp) CancellationFanout(int) {}
func (NoOp) ObserveOperation(string, time.Duration) {}

// Prometheus implements Recorder with Prometheus collectors.
type Prometheus struct {
	joins         *prometheus.CounterVec
	leaves        prometheus.Counter
	promotions    prometheus.Counter
	notifications *prometheus.CounterVec
	fanout        prometheus.Counter
	duration      *prometheus.HistogramVec
}

// NewPrometheus registers the engine collectors on reg under namespace.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if namespace == "" {
		namespace = "eventparticipation"
	}
	f := promauto.With(reg)
	return &Prometheus{
		joins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "participation_joins_total",
			Help:      "Join attempts by outcome",
		}, []string{"outcome"}),
		leaves: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "participation_leaves_total",
			Help:      "Successful leaves",
		}),
		promotions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "participation_promotions_total",
			Help:      "Waitlisted participants promoted after a leave",
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications by type and delivery result",
		}, []string{"type", "result"}),
		fanout: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_cancelled_fanout_total",
			Help:      "Notifications emitted for cancelled events",
		}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "participation_operation_duration_seconds",
			Help:      "Lifecycle operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

func (p *Prometheus) JoinCompleted(outcome string) {
	p.joins.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) LeaveCompleted(promoted bool) {
	p.leaves.Inc()
	if promoted {
		p.promotions.Inc()
	}
}

func (p *Prometheus) NotificationHandled(t domain.NotificationType, result string) {
	p.notifications.WithLabelValues(string(t), result).Inc()
}

func (p *Prometheus) CancellationFanout(notified int) {
	p.fanout.Add(float64(notified))
}

func (p *Prometheus) ObserveOperation(op string, d time.Duration) {
	p.duration.WithLabelValues(op).Observe(d.Seconds())
}
