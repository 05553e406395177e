package flow

// Config holds the per-tick amounts of the network.
type Config struct {
	// Generate is added to a burning furnace each tick.
	Generate int32

	// FurnaceCapacity is applied to newly created furnaces.
	FurnaceCapacity int32

	// FurnaceTransfer is extracted from a furnace's top face into the lamp above.
	FurnaceTransfer int32

	// LampTransfer is passed from a lamp to the lamp above it.
	LampTransfer int32

	// LampBurn is what a lamp spends each tick to stay lit.
	LampBurn int32

	// TelemetryEvery samples energy levels every N ticks. 0 disables sampling.
	TelemetryEvery uint64
}

// DefaultConfig returns the stock furnace and lamp amounts.
func DefaultConfig() Config {
	return Config{
		Generate:        100,
		FurnaceCapacity: 25000,
		FurnaceTransfer: 100,
		LampTransfer:    50,
		LampBurn:        25,
		TelemetryEvery:  20,
	}
}
