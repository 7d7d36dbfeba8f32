package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Codec directions and results used as label values.
const (
	DirectionDecode = "decode"
	DirectionEncode = "encode"

	ResultOK        = "ok"
	ResultMalformed = "malformed"
	ResultOversize  = "oversize"
	ResultInvalid   = "invalid"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txwire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "txwire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	codecPackets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txwire",
			Subsystem: "codec",
			Name:      "packets_total",
			Help:      "Packets handled by the codec by direction and result.",
		},
		[]string{"node", "direction", "result"},
	)
	codecTruncated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "txwire",
			Subsystem: "codec",
			Name:      "truncated_bytes_total",
			Help:      "Packet bytes dropped past the decode buffer capacity.",
		},
		[]string{"node"},
	)
	codecPacketBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "txwire",
			Subsystem: "codec",
			Name:      "packet_bytes",
			Help:      "Packet data length seen by the codec.",
			Buckets:   []float64{64, 128, 256, 512, 768, 1024, 1232, 2048, 4096},
		},
		[]string{"node", "direction"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, codecPackets, codecTruncated, codecPacketBytes)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordCodec counts one packet through the codec. truncated is the number
// of bytes dropped past capacity and is ignored for encode.
func RecordCodec(node, direction, result string, packetBytes, truncated int) {
	RegisterMetrics()
	codecPackets.WithLabelValues(node, direction, result).Inc()
	codecPacketBytes.WithLabelValues(node, direction).Observe(float64(packetBytes))
	if truncated > 0 {
		codecTruncated.WithLabelValues(node).Add(float64(truncated))
	}
}
