package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "groupchat"

// Metrics holds the server collectors on a private registry. It satisfies
// the observer interfaces of the event bus and the channel registry.
type Metrics struct {
	registry *prometheus.Registry

	eventsPublished *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	subscribers     *prometheus.GaugeVec
	channelsOpen    prometheus.Gauge
	channelsClosed  *prometheus.CounterVec
	requests        *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events published on the in-process bus.",
		}, []string{"topic"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events dropped because a subscriber buffer was full.",
		}, []string{"topic"}),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bus_subscribers",
			Help:      "Open bus iterators per topic.",
		}, []string{"topic"}),
		channelsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channels_open",
			Help:      "Open live channels.",
		}),
		channelsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_closed_total",
			Help:      "Closed live channels by reason.",
		}, []string{"reason"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "One-shot requests by method and error kind.",
		}, []string{"method", "kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.eventsPublished,
		m.eventsDropped,
		m.subscribers,
		m.channelsOpen,
		m.channelsClosed,
		m.requests,
	)
	return m
}

func (m *Metrics) EventPublished(topic string) { m.eventsPublished.WithLabelValues(topic).Inc() }
func (m *Metrics) EventDropped(topic string)   { m.eventsDropped.WithLabelValues(topic).Inc() }

func (m *Metrics) SubscribersChanged(topic string, delta int) {
	m.subscribers.WithLabelValues(topic).Add(float64(delta))
}

func (m *Metrics) ChannelsChanged(delta int) { m.channelsOpen.Add(float64(delta)) }

func (m *Metrics) ChannelClosed(reason string) { m.channelsClosed.WithLabelValues(reason).Inc() }

// RequestObserved counts a finished request. kind is "ok" or an error kind.
func (m *Metrics) RequestObserved(method, kind string) {
	m.requests.WithLabelValues(method, kind).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
