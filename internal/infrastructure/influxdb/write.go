package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/blockenergy-core/internal/world"
)

// Measurement names.
const (
	MeasurementEnergyLevel = "energy_level"
	MeasurementEnergyTick  = "energy_tick"
)

// RecordEnergy writes the stored energy of the capability at loc. kind is
// the host material name of the block.
func (c *Client) RecordEnergy(loc world.Location, kind string, stored, capacity int32) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(energyPoint(loc, kind, stored, capacity, time.Now()))
}

// RecordTick writes the totals of one flow network step.
func (c *Client) RecordTick(tick uint64, furnaces, lamps, litLamps int, generated int64) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(tickPoint(tick, furnaces, lamps, litLamps, generated, time.Now()))
}

func energyPoint(loc world.Location, kind string, stored, capacity int32, ts time.Time) *write.Point {
	// Coordinates are fields, not tags, to keep series cardinality per
	// world and kind.
	return write.NewPoint(MeasurementEnergyLevel,
		map[string]string{
			"world": string(loc.World),
			"kind":  kind,
		},
		map[string]any{
			"x":        loc.X,
			"y":        loc.Y,
			"z":        loc.Z,
			"stored":   stored,
			"capacity": capacity,
		},
		ts)
}

func tickPoint(tick uint64, furnaces, lamps, litLamps int, generated int64, ts time.Time) *write.Point {
	return write.NewPoint(MeasurementEnergyTick,
		nil,
		map[string]any{
			"tick":      tick,
			"furnaces":  furnaces,
			"lamps":     lamps,
			"lit_lamps": litLamps,
			"generated": generated,
		},
		ts)
}
