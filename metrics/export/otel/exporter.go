package otel

import (
	"context"
	"errors"
	"fmt"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/metrics/export/internaldefs"
	"github.com/MrEthical07/goAuthClient/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

const (
	latencyBucketName = "goauthclient_gateway_latency_seconds_bucket"
	latencyCountName  = "goauthclient_gateway_latency_seconds_count"
	sessionGaugeName  = "goauthclient_session_authenticated"
	auditDroppedName  = "goauthclient_audit_dropped_total"
)

// MetricsSource is satisfied by *goAuthClient.Client.
type MetricsSource interface {
	MetricsSnapshot() goAuthClient.MetricsSnapshot
	AuditDropped() uint64
}

// identitySource is the optional part of a source that reports whether a
// session is established. *goAuthClient.Client implements it.
type identitySource interface {
	Identity() (session.Identity, bool)
}

type observedCounter struct {
	id         goAuthClient.MetricID
	instrument metric.Int64ObservableCounter
}

// channelSeries holds the precomputed attribute sets of one gateway channel.
type channelSeries struct {
	id      goAuthClient.MetricID
	buckets [8]metric.MeasurementOption
	total   metric.MeasurementOption
}

// OTelExporter publishes client metrics through observable instruments.
// Gateway latency is one bucket gauge and one count gauge, split by the
// "channel" and "le" attributes.
type OTelExporter struct {
	source       MetricsSource
	identity     identitySource
	registration metric.Registration

	counters     []observedCounter
	series       []channelSeries
	latency      metric.Int64ObservableGauge
	latencyCount metric.Int64ObservableGauge
	session      metric.Int64ObservableGauge
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments on meter that read from client.
func NewOTelExporter(meter metric.Meter, client *goAuthClient.Client) (*OTelExporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, client)
}

// NewOTelExporterFromSource registers instruments reading from source. The
// session gauge is registered only when source also reports an identity.
func NewOTelExporterFromSource(meter metric.Meter, source MetricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	e.identity, _ = source.(identitySource)

	var observables []metric.Observable
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	var err error
	e.latency, err = meter.Int64ObservableGauge(latencyBucketName,
		metric.WithDescription("Cumulative gateway call count per latency bucket."),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create latency bucket gauge: %w", err)
	}
	e.latencyCount, err = meter.Int64ObservableGauge(latencyCountName,
		metric.WithDescription("Gateway calls observed per channel."),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create latency count gauge: %w", err)
	}
	observables = append(observables, e.latency, e.latencyCount)

	for _, def := range internaldefs.HistogramDefs {
		channel := attribute.String("channel", def.Channel)
		s := channelSeries{
			id:    def.ID,
			total: metric.WithAttributeSet(attribute.NewSet(channel)),
		}
		for i, bound := range internaldefs.HistogramBounds {
			s.buckets[i] = metric.WithAttributeSet(attribute.NewSet(channel, attribute.String("le", bound)))
		}
		e.series = append(e.series, s)
	}

	if e.identity != nil {
		e.session, err = meter.Int64ObservableGauge(sessionGaugeName,
			metric.WithDescription("1 while a session is established, 0 when anonymous."),
		)
		if err != nil {
			return nil, fmt.Errorf("create session gauge: %w", err)
		}
		observables = append(observables, e.session)
	}

	e.auditDropped, err = meter.Int64ObservableCounter(auditDroppedName,
		metric.WithDescription("Audit events dropped because the dispatcher buffer was full."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, e.auditDropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}

	for _, s := range e.series {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[s.id]))
		for i, v := range cumulative {
			o.ObserveInt64(e.latency, int64(v), s.buckets[i])
		}
		o.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]), s.total)
	}

	if e.identity != nil {
		var active int64
		if _, ok := e.identity.Identity(); ok {
			active = 1
		}
		o.ObserveInt64(e.session, active)
	}

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
