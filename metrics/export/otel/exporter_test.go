package otel

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/internal/mockservice"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goAuthClient.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goAuthClient.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goAuthClient.MetricsSnapshot{
		Counters:   make(map[goAuthClient.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goAuthClient.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

// findInt64 returns the value of the data point of name whose attributes
// include every attrs pair.
func findInt64(rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) (int64, bool) {
	matches := func(set attribute.Set) bool {
		for _, kv := range attrs {
			if v, ok := set.Value(kv.Key); !ok || v != kv.Value {
				return false
			}
		}
		return true
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					if matches(dp.Attributes) {
						return dp.Value, true
					}
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					if matches(dp.Attributes) {
						return dp.Value, true
					}
				}
			}
		}
	}
	return 0, false
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	return rm
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newMeter()
	meter := provider.Meter("goauthclient-test")

	src := &fakeSource{
		snapshot: goAuthClient.MetricsSnapshot{
			Counters: map[goAuthClient.MetricID]uint64{
				goAuthClient.MetricLoginSuccess: 3,
			},
			Histograms: map[goAuthClient.MetricID][]uint64{
				goAuthClient.MetricGatewayAuthenticatedLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	rm := collect(t, reader)
	authenticated := attribute.String("channel", "authenticated")
	public := attribute.String("channel", "public")

	tests := []struct {
		name  string
		attrs []attribute.KeyValue
		want  int64
	}{
		{name: "goauthclient_login_success_total", want: 3},
		{name: latencyBucketName, attrs: []attribute.KeyValue{authenticated, attribute.String("le", "0.005")}, want: 1},
		{name: latencyBucketName, attrs: []attribute.KeyValue{authenticated, attribute.String("le", "+Inf")}, want: 8},
		{name: latencyCountName, attrs: []attribute.KeyValue{authenticated}, want: 8},
		{name: latencyCountName, attrs: []attribute.KeyValue{public}, want: 0},
		{name: auditDroppedName, want: 1},
	}
	for _, tc := range tests {
		got, ok := findInt64(rm, tc.name, tc.attrs...)
		if !ok {
			t.Fatalf("metric %s %v not collected", tc.name, tc.attrs)
		}
		if got != tc.want {
			t.Fatalf("%s %v = %d, want %d", tc.name, tc.attrs, got, tc.want)
		}
	}

	if _, ok := findInt64(rm, sessionGaugeName); ok {
		t.Fatal("session gauge must not exist for a source without identity")
	}
}

func TestExporterReportsSessionState(t *testing.T) {
	svc, err := mockservice.New(mockservice.Options{})
	if err != nil {
		t.Fatalf("mockservice.New: %v", err)
	}
	svc.AddUser("matti@example.com", "Salasana123!", true)
	srv := httptest.NewServer(svc)
	defer srv.Close()

	cfg := goAuthClient.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.Session.Backend = goAuthClient.SessionBackendMemory
	client, err := goAuthClient.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer client.Close()

	reader, provider := newMeter()
	exp, err := NewOTelExporter(provider.Meter("goauthclient-test"), client)
	if err != nil {
		t.Fatalf("NewOTelExporter: %v", err)
	}
	defer exp.Close()

	if got, ok := findInt64(collect(t, reader), sessionGaugeName); !ok || got != 0 {
		t.Fatalf("anonymous session gauge = %d (found %v), want 0", got, ok)
	}

	if _, err := client.Login(context.Background(), "matti@example.com", "Salasana123!"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	rm := collect(t, reader)
	if got, _ := findInt64(rm, sessionGaugeName); got != 1 {
		t.Fatalf("session gauge after login = %d, want 1", got)
	}
	if got, _ := findInt64(rm, "goauthclient_login_success_total"); got != 1 {
		t.Fatalf("login success = %d, want 1", got)
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	_, provider := newMeter()
	meter := provider.Meter("goauthclient-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
	if _, err := NewOTelExporter(meter, nil); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err == nil {
		t.Fatal("expected error for nil meter")
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newMeter()
	meter := provider.Meter("goauthclient-test")

	src := &fakeSource{
		snapshot: goAuthClient.MetricsSnapshot{
			Counters: map[goAuthClient.MetricID]uint64{
				goAuthClient.MetricLoginSuccess: 1,
			},
			Histograms: map[goAuthClient.MetricID][]uint64{
				goAuthClient.MetricGatewayPublicLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goAuthClient.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
