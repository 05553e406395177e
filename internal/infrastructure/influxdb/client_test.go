package influxdb

import (
	"errors"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/blockenergy-core/internal/infrastructure/config"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

// testConfig points at a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "blockenergy-dev-token",
		Org:           "blockenergy",
		Bucket:        "energy",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func connectOrSkip(t *testing.T) *Client {
	t.Helper()
	client, err := Connect(testConfig())
	if err != nil {
		t.Skip("InfluxDB not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // test cleanup
	return client
}

func fields(p *write.Point) map[string]any {
	out := make(map[string]any)
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func tags(p *write.Point) map[string]string {
	out := make(map[string]string)
	for _, tg := range p.TagList() {
		out[tg.Key] = tg.Value
	}
	return out
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	if _, err := Connect(cfg); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	if _, err := Connect(cfg); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestBatchSettings(t *testing.T) {
	tests := []struct {
		batch, flush         int
		wantBatch, wantFlush int
	}{
		{500, 5, 500, 5},
		{0, 0, defaultBatchSize, defaultFlushInterval},
		{-1, -10, defaultBatchSize, defaultFlushInterval},
	}
	for _, tt := range tests {
		b, f := batchSettings(config.InfluxDBConfig{BatchSize: tt.batch, FlushInterval: tt.flush})
		if b != tt.wantBatch || f != tt.wantFlush {
			t.Errorf("batchSettings(%d, %d) = (%d, %d), want (%d, %d)",
				tt.batch, tt.flush, b, f, tt.wantBatch, tt.wantFlush)
		}
	}
}

func TestEnergyPoint(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := energyPoint(world.At("overworld", 4, 70, -2), "REDSTONE_LAMP", 75, 2147483647, ts)

	if p.Name() != MeasurementEnergyLevel {
		t.Errorf("Name() = %q", p.Name())
	}
	if !p.Time().Equal(ts) {
		t.Errorf("Time() = %v, want %v", p.Time(), ts)
	}

	gotTags := tags(p)
	if gotTags["world"] != "overworld" || gotTags["kind"] != "REDSTONE_LAMP" || len(gotTags) != 2 {
		t.Errorf("tags = %v", gotTags)
	}

	gotFields := fields(p)
	want := map[string]any{
		"x": int64(4), "y": int64(70), "z": int64(-2),
		"stored": int64(75), "capacity": int64(2147483647),
	}
	for k, v := range want {
		if gotFields[k] != v {
			t.Errorf("field %s = %v (%T), want %v", k, gotFields[k], gotFields[k], v)
		}
	}
}

func TestTickPoint(t *testing.T) {
	p := tickPoint(40, 2, 5, 3, 200, time.Now())

	if p.Name() != MeasurementEnergyTick {
		t.Errorf("Name() = %q", p.Name())
	}
	if len(p.TagList()) != 0 {
		t.Errorf("tick point should carry no tags, got %d", len(p.TagList()))
	}
	got := fields(p)
	if got["lit_lamps"] != int64(3) || got["generated"] != int64(200) || got["tick"] != uint64(40) {
		t.Errorf("fields = %v", got)
	}
}

func TestNilAndClosedClient(t *testing.T) {
	var nilClient *Client
	if nilClient.IsConnected() {
		t.Error("nil client reports connected")
	}
	if err := nilClient.Close(); err != nil {
		t.Errorf("Close() on nil client = %v", err)
	}

	closed := &Client{}
	closed.RecordEnergy(world.At("w", 0, 0, 0), "FURNACE", 1, 1)
	closed.RecordTick(1, 0, 0, 0, 0)
	closed.Flush()
	if err := closed.HealthCheck(t.Context()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
}

func TestRecordEnergy_Live(t *testing.T) {
	client := connectOrSkip(t)

	var writeErr error
	client.SetOnError(func(err error) { writeErr = err })

	client.RecordEnergy(world.At("overworld", 0, 64, 0), "FURNACE", 100, 25000)
	client.RecordTick(1, 1, 0, 0, 100)
	client.Flush()

	if err := client.HealthCheck(t.Context()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if writeErr != nil {
		t.Errorf("async write error = %v", writeErr)
	}
}
