package flow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/blockenergy-core/internal/capability"
	"github.com/nerrad567/blockenergy-core/internal/energy"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

// Actuator applies lamp state in the game.
type Actuator interface {
	SetLit(ctx context.Context, loc world.Location, lit bool) error
}

// Telemetry records sampled energy levels.
type Telemetry interface {
	RecordEnergy(loc world.Location, kind string, stored, capacity int32)
}

// Logger defines the logging interface used by the network.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// TickReport summarises one Step.
type TickReport struct {
	Tick      uint64 `json:"tick"`
	Furnaces  int    `json:"furnaces"`
	Lamps     int    `json:"lamps"`
	Generated int64  `json:"generated"`
	LitLamps  int    `json:"lit_lamps"`
}

// Network tracks furnaces and lamps and moves energy between them.
type Network struct {
	banks     *capability.Registry[*energy.Bank]
	cfg       Config
	actuator  Actuator
	telemetry Telemetry
	logger    Logger

	// stepMu serializes Step with ForgetWorld so a tick never touches a
	// world mid-unload.
	stepMu sync.Mutex

	mu      sync.Mutex
	blocks  map[world.Location]Kind
	burning map[world.Location]bool
	lit     map[world.Location]bool
	tick    uint64

	observersMu sync.RWMutex
	observers   []func(TickReport)
}

// New creates a network over the standard bank registry. actuator and
// telemetry may be nil.
func New(banks *capability.Registry[*energy.Bank], cfg Config, actuator Actuator, telemetry Telemetry) *Network {
	return &Network{
		banks:     banks,
		cfg:       cfg,
		actuator:  actuator,
		telemetry: telemetry,
		logger:    noopLogger{},
		blocks:    make(map[world.Location]Kind),
		burning:   make(map[world.Location]bool),
		lit:       make(map[world.Location]bool),
	}
}

// SetLogger sets the logger for the network.
func (n *Network) SetLogger(logger Logger) {
	n.logger = logger
}

// OnTick registers fn to receive every TickReport. fn runs on the tick
// goroutine and must not block.
func (n *Network) OnTick(fn func(TickReport)) {
	n.observersMu.Lock()
	n.observers = append(n.observers, fn)
	n.observersMu.Unlock()
}

// Place handles a block placement. Furnaces and lamps become capabilities;
// a newly created furnace only outputs through its top face. Other kinds
// are ignored.
func (n *Network) Place(ctx context.Context, loc world.Location, kind Kind) error {
	if kind != Furnace && kind != Lamp {
		return nil
	}

	bank, created, err := n.banks.Create(ctx, loc)
	if err != nil {
		return fmt.Errorf("placing %s at %s: %w", kind, loc, err)
	}

	if created && kind == Furnace {
		for _, d := range world.Directions {
			bank.SetFacePermission(d, energy.Disabled)
		}
		bank.SetFacePermission(world.Up, energy.Output)
		bank.SetCapacity(n.cfg.FurnaceCapacity)
	}

	n.mu.Lock()
	n.blocks[loc] = kind
	n.mu.Unlock()

	n.logger.Debug("block tracked", "kind", kind.Name(), "location", loc.String(), "created", created)
	return nil
}

// Break stops tracking loc. Its durable energy data is kept.
func (n *Network) Break(loc world.Location) {
	n.mu.Lock()
	delete(n.blocks, loc)
	delete(n.burning, loc)
	delete(n.lit, loc)
	n.mu.Unlock()
}

// ForgetWorld stops tracking every block in world w. It waits for a running
// Step to finish, so once it returns no tick will load w's capabilities
// again. Call it before the registries evict w.
func (n *Network) ForgetWorld(w world.ID) int {
	n.stepMu.Lock()
	defer n.stepMu.Unlock()

	n.mu.Lock()
	defer n.mu.Unlock()

	var forgotten int
	for loc := range n.blocks {
		if loc.World == w {
			delete(n.blocks, loc)
			forgotten++
		}
	}
	for loc := range n.burning {
		if loc.World == w {
			delete(n.burning, loc)
		}
	}
	for loc := range n.lit {
		if loc.World == w {
			delete(n.lit, loc)
		}
	}
	return forgotten
}

// SetBurning records whether the furnace at loc has fuel burning.
func (n *Network) SetBurning(loc world.Location, burning bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if burning {
		n.burning[loc] = true
	} else {
		delete(n.burning, loc)
	}
}

// Tracked returns how many furnaces and lamps the network knows about.
func (n *Network) Tracked() (furnaces, lamps int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, k := range n.blocks {
		switch k {
		case Furnace:
			furnaces++
		case Lamp:
			lamps++
		}
	}
	return furnaces, lamps
}

// Inspect returns the stored energy at loc. ok is false when loc is not a
// capability.
func (n *Network) Inspect(ctx context.Context, loc world.Location) (stored int32, ok bool, err error) {
	bank, found, err := n.banks.Get(ctx, loc)
	if err != nil || !found {
		return 0, false, err
	}
	return bank.Stored(), true, nil
}

// Step runs one tick. Errors for single blocks are collected and the tick
// continues.
func (n *Network) Step(ctx context.Context) (TickReport, error) {
	n.stepMu.Lock()
	defer n.stepMu.Unlock()

	furnaces, lamps, tick := n.snapshot()
	report := TickReport{Tick: tick, Furnaces: len(furnaces), Lamps: len(lamps)}

	var errs []error
	for _, loc := range furnaces {
		generated, err := n.stepFurnace(ctx, loc)
		if err != nil {
			errs = append(errs, err)
		}
		report.Generated += int64(generated)
	}

	for _, loc := range lamps {
		lit, err := n.stepLamp(ctx, loc)
		if err != nil {
			errs = append(errs, err)
		}
		if lit {
			report.LitLamps++
		}
	}

	if n.cfg.TelemetryEvery > 0 && tick%n.cfg.TelemetryEvery == 0 {
		n.sample(furnaces, lamps)
	}

	n.observersMu.RLock()
	for _, fn := range n.observers {
		fn(report)
	}
	n.observersMu.RUnlock()

	return report, errors.Join(errs...)
}

// Run calls Step every interval until ctx is cancelled.
func (n *Network) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := n.Step(ctx); err != nil {
				n.logger.Warn("tick had errors", "error", err)
			}
		}
	}
}

func (n *Network) stepFurnace(ctx context.Context, loc world.Location) (int32, error) {
	bank, found, err := n.banks.Get(ctx, loc)
	if err != nil || !found {
		return 0, err
	}

	var generated int32
	if n.isBurning(loc) {
		before := bank.Stored()
		bank.Generate(n.cfg.Generate)
		generated = bank.Stored() - before
	}

	if n.kindAt(loc.Relative(world.Up)) == Lamp {
		extracted := bank.Extract(world.Up, n.cfg.FurnaceTransfer, false)
		if err := n.passUp(ctx, loc, extracted); err != nil {
			return generated, err
		}
	}
	return generated, nil
}

// passUp hands amount to the lamp column above from and recurses while
// lamps continue.
func (n *Network) passUp(ctx context.Context, from world.Location, amount int32) error {
	for {
		above := from.Relative(world.Up)
		if n.kindAt(above) != Lamp {
			return nil
		}

		lamp, found, err := n.banks.Get(ctx, above)
		if err != nil {
			return fmt.Errorf("powering lamp at %s: %w", above, err)
		}
		if !found {
			return nil
		}

		lamp.Receive(world.Down, amount, false)
		if n.kindAt(above.Relative(world.Up)) != Lamp {
			return nil
		}
		amount = lamp.Extract(world.Up, n.cfg.LampTransfer, false)
		from = above
	}
}

func (n *Network) stepLamp(ctx context.Context, loc world.Location) (bool, error) {
	bank, found, err := n.banks.Get(ctx, loc)
	if err != nil || !found {
		return false, err
	}

	lit := bank.Burn(n.cfg.LampBurn)

	n.mu.Lock()
	prev, known := n.lit[loc]
	n.lit[loc] = lit
	n.mu.Unlock()

	if n.actuator != nil && (!known || prev != lit) {
		if err := n.actuator.SetLit(ctx, loc, lit); err != nil {
			return lit, fmt.Errorf("setting lamp at %s: %w", loc, err)
		}
	}
	return lit, nil
}

func (n *Network) sample(furnaces, lamps []world.Location) {
	if n.telemetry == nil {
		return
	}
	record := func(locs []world.Location, kind Kind) {
		for _, loc := range locs {
			if bank, ok := n.banks.Cached(loc); ok {
				n.telemetry.RecordEnergy(loc, kind.Name(), bank.Stored(), bank.Capacity())
			}
		}
	}
	record(furnaces, Furnace)
	record(lamps, Lamp)
}

// snapshot returns the tracked furnaces and lamps in a stable order and
// advances the tick counter.
func (n *Network) snapshot() (furnaces, lamps []world.Location, tick uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for loc, k := range n.blocks {
		switch k {
		case Furnace:
			furnaces = append(furnaces, loc)
		case Lamp:
			lamps = append(lamps, loc)
		}
	}
	sortLocations(furnaces)
	sortLocations(lamps)

	n.tick++
	return furnaces, lamps, n.tick
}

func (n *Network) kindAt(loc world.Location) Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.blocks[loc]
}

func (n *Network) isBurning(loc world.Location) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.burning[loc]
}

// sortLocations orders bottom-up so lamps low in a column tick first.
func sortLocations(locs []world.Location) {
	sort.Slice(locs, func(i, j int) bool {
		a, b := locs[i], locs[j]
		if a.World != b.World {
			return a.World < b.World
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
}
