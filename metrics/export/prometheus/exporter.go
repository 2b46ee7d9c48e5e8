package prometheus

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/metrics/export/internaldefs"
	"github.com/MrEthical07/goAuthClient/session"
)

const (
	latencyFamily = "goauthclient_gateway_latency_seconds"
	latencyHelp   = "Latency of remote calls by gateway channel."
	sessionGauge  = "goauthclient_session_authenticated"
	auditDropped  = "goauthclient_audit_dropped_total"
)

// MetricsSource is satisfied by *goAuthClient.Client.
type MetricsSource interface {
	MetricsSnapshot() goAuthClient.MetricsSnapshot
	AuditDropped() uint64
}

// identitySource is implemented by sources that know whether a session is
// established.
type identitySource interface {
	Identity() (session.Identity, bool)
}

// PrometheusExporter renders client metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	source MetricsSource
}

// NewPrometheusExporter creates an exporter reading from client.
func NewPrometheusExporter(client *goAuthClient.Client) *PrometheusExporter {
	return &PrometheusExporter{source: client}
}

// NewPrometheusExporterFromSource creates an exporter from any [MetricsSource].
func NewPrometheusExporterFromSource(source MetricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves [PrometheusExporter.Render].
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = io.WriteString(w, p.Render())
	})
}

// Render returns the current metrics. It is empty while nothing has been
// recorded, which is also the state of a client with metrics disabled.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		header(&b, def.Name, def.Help, "counter")
		fmt.Fprintf(&b, "%s %d\n", def.Name, snapshot.Counters[def.ID])
	}

	// Both channels share one family; the channel label tells them apart.
	header(&b, latencyFamily, latencyHelp, "histogram")
	for _, def := range internaldefs.HistogramDefs {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		for i, le := range internaldefs.HistogramBounds {
			fmt.Fprintf(&b, "%s_bucket{channel=%q,le=%q} %d\n", latencyFamily, def.Channel, le, cumulative[i])
		}
		fmt.Fprintf(&b, "%s_count{channel=%q} %d\n", latencyFamily, def.Channel, cumulative[len(cumulative)-1])
		// Snapshots carry bucket counts only.
		fmt.Fprintf(&b, "%s_sum{channel=%q} 0\n", latencyFamily, def.Channel)
	}

	if ids, ok := p.source.(identitySource); ok {
		active := 0
		if _, authenticated := ids.Identity(); authenticated {
			active = 1
		}
		header(&b, sessionGauge, "1 while a session is established, 0 when anonymous.", "gauge")
		fmt.Fprintf(&b, "%s %d\n", sessionGauge, active)
	}

	header(&b, auditDropped, "Audit events dropped because the dispatcher buffer was full.", "counter")
	fmt.Fprintf(&b, "%s %d\n", auditDropped, dropped)

	return b.String()
}

func header(b *strings.Builder, name, help, kind string) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n", name, escapeHelp(help), name, kind)
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
