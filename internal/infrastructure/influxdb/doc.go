// Package influxdb records energy telemetry in InfluxDB 2.x.
//
// Writes are non-blocking: points are batched by the client library and
// flushed on an interval, so the tick loop never waits on the network.
// Asynchronous write failures are reported through SetOnError.
//
// Measurements:
//   - energy_level: stored and capacity per capability, tagged by world and block kind
//   - energy_tick: per-tick totals from the flow network
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.RecordEnergy(loc, "FURNACE", 1200, 25000)
package influxdb
