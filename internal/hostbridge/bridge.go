package hostbridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/blockenergy-core/internal/flow"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

// defaultHandlerTimeout bounds the work done for one host message.
const defaultHandlerTimeout = 10 * time.Second

// Broker is the subset of *mqtt.Client the bridge uses.
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	PublishJSON(topic string, v any) error
}

// Logger defines the logging interface used by the bridge.
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

// Callbacks are the functions host events are dispatched to. Any of them
// may be nil, in which case the event is accepted and ignored.
type Callbacks struct {
	// WorldSaved flushes every cached capability in the world.
	WorldSaved func(ctx context.Context, w world.ID) (int, error)

	// WorldUnloaded flushes and evicts every cached capability in the world.
	WorldUnloaded func(ctx context.Context, w world.ID) (int, error)

	// BlockPlaced starts tracking a furnace or lamp.
	BlockPlaced func(ctx context.Context, loc world.Location, kind flow.Kind) error

	// BlockBroken stops tracking a block.
	BlockBroken func(loc world.Location)

	// FurnaceBurning records fuel state.
	FurnaceBurning func(loc world.Location, burning bool)

	// Inspect returns stored energy; ok is false when loc holds no capability.
	Inspect func(ctx context.Context, loc world.Location) (stored int32, ok bool, err error)
}

// Options configures a Bridge.
type Options struct {
	Broker    Broker
	Callbacks Callbacks
	QoS       byte
	Logger    Logger
}

// Metrics counts messages handled since Start.
type Metrics struct {
	Received  int64 `json:"received"`
	Dropped   int64 `json:"dropped"`
	Published int64 `json:"published"`
}

// Bridge connects host events on MQTT to core callbacks, and publishes
// lamp state and chat replies back to the host.
type Bridge struct {
	broker  Broker
	cb      Callbacks
	qos     byte
	logger  Logger
	schemas validators

	ctx       context.Context
	ctxCancel context.CancelFunc
	stopOnce  sync.Once
	stopped   atomic.Bool

	subMu  sync.Mutex
	topics []string

	received  atomic.Int64
	dropped   atomic.Int64
	published atomic.Int64
}

// New creates a bridge. Call Start to subscribe.
func New(opts Options) (*Bridge, error) {
	if opts.Broker == nil {
		return nil, fmt.Errorf("hostbridge: broker is required")
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, fmt.Errorf("hostbridge: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		broker:    opts.Broker,
		cb:        opts.Callbacks,
		qos:       opts.QoS,
		logger:    logger,
		schemas:   schemas,
		ctx:       ctx,
		ctxCancel: cancel,
	}, nil
}

// Start subscribes to every host topic.
func (b *Bridge) Start(_ context.Context) error {
	if b.stopped.Load() {
		return ErrStopped
	}

	t := mqtt.Topics{}
	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{t.AllWorldSaved(), b.handleWorldSaved},
		{t.AllWorldUnloaded(), b.handleWorldUnloaded},
		{t.BlockPlaced(), b.handleBlockPlaced},
		{t.BlockBroken(), b.handleBlockBroken},
		{t.BlockState(), b.handleBlockState},
		{t.PlayerInteract(), b.handleInteract},
	}

	b.subMu.Lock()
	defer b.subMu.Unlock()
	for _, s := range subs {
		if err := b.broker.Subscribe(s.topic, b.qos, b.counted(s.handler)); err != nil {
			return fmt.Errorf("subscribing to %s: %w", s.topic, err)
		}
		b.topics = append(b.topics, s.topic)
		b.logger.Debug("subscribed", "topic", s.topic)
	}

	b.logger.Info("host bridge started", "topics", len(b.topics))
	return nil
}

// Stop unsubscribes and cancels in-flight handlers.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.stopped.Store(true)
		b.ctxCancel()

		b.subMu.Lock()
		for _, topic := range b.topics {
			if err := b.broker.Unsubscribe(topic); err != nil {
				b.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
			}
		}
		b.topics = nil
		b.subMu.Unlock()

		b.logger.Info("host bridge stopped")
	})
}

// Metrics returns message counters.
func (b *Bridge) Metrics() Metrics {
	return Metrics{
		Received:  b.received.Load(),
		Dropped:   b.dropped.Load(),
		Published: b.published.Load(),
	}
}

// SetLit publishes a lamp state command. It satisfies flow.Actuator.
func (b *Bridge) SetLit(ctx context.Context, loc world.Location, lit bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.publish(mqtt.Topics{}.BlockCommand(loc), BlockCommand{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Location:  loc,
		Lit:       lit,
	})
}

// Tell sends a chat line to one player.
func (b *Bridge) Tell(player, text string) error {
	return b.publish(mqtt.Topics{}.Chat(player), ChatMessage{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Player:    player,
		Text:      text,
	})
}

func (b *Bridge) publish(topic string, v any) error {
	if err := b.broker.PublishJSON(topic, v); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	b.published.Add(1)
	return nil
}

// counted wraps a handler with message accounting. Rejected messages are
// logged here; the error is still returned so the MQTT client logs it too.
func (b *Bridge) counted(h mqtt.MessageHandler) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		b.received.Add(1)
		if err := h(topic, payload); err != nil {
			b.dropped.Add(1)
			b.logger.Warn("host message dropped", "topic", topic, "error", err)
			return err
		}
		return nil
	}
}

func (b *Bridge) handlerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(b.ctx, defaultHandlerTimeout)
}

func (b *Bridge) handleWorldSaved(topic string, payload []byte) error {
	return b.handleWorld(topic, payload, "saved", b.cb.WorldSaved)
}

func (b *Bridge) handleWorldUnloaded(topic string, payload []byte) error {
	return b.handleWorld(topic, payload, "unloaded", b.cb.WorldUnloaded)
}

func (b *Bridge) handleWorld(topic string, payload []byte, event string,
	fn func(context.Context, world.ID) (int, error)) error {
	w, err := mqtt.Topics{}.WorldFromTopic(topic)
	if err != nil {
		return err
	}

	var ev WorldEvent
	if err := b.schemas.decode(schemaWorldEvent, payload, &ev); err != nil {
		return err
	}
	if ev.World != "" && ev.World != w {
		return fmt.Errorf("%w: topic %q, payload %q", ErrWorldMismatch, w, ev.World)
	}
	if fn == nil {
		return nil
	}

	ctx, cancel := b.handlerContext()
	defer cancel()

	n, err := fn(ctx, w)
	if err != nil {
		return fmt.Errorf("world %s %s: %w", w, event, err)
	}
	b.logger.Info("world "+event, "world", string(w), "flushed", n)
	return nil
}

func (b *Bridge) handleBlockPlaced(_ string, payload []byte) error {
	var ev BlockEvent
	if err := b.schemas.decode(schemaBlockEvent, payload, &ev); err != nil {
		return err
	}
	kind, ok := flow.ParseKind(ev.Material)
	if !ok || b.cb.BlockPlaced == nil {
		return nil
	}

	ctx, cancel := b.handlerContext()
	defer cancel()
	return b.cb.BlockPlaced(ctx, ev.Location, kind)
}

func (b *Bridge) handleBlockBroken(_ string, payload []byte) error {
	var ev BlockEvent
	if err := b.schemas.decode(schemaBlockEvent, payload, &ev); err != nil {
		return err
	}
	if _, ok := flow.ParseKind(ev.Material); ok && b.cb.BlockBroken != nil {
		b.cb.BlockBroken(ev.Location)
	}
	return nil
}

func (b *Bridge) handleBlockState(_ string, payload []byte) error {
	var ev BlockStateEvent
	if err := b.schemas.decode(schemaBlockState, payload, &ev); err != nil {
		return err
	}
	if kind, ok := flow.ParseKind(ev.Material); ok && kind == flow.Furnace && b.cb.FurnaceBurning != nil {
		b.cb.FurnaceBurning(ev.Location, ev.Burning)
	}
	return nil
}

func (b *Bridge) handleInteract(_ string, payload []byte) error {
	var ev InteractEvent
	if err := b.schemas.decode(schemaPlayerInteract, payload, &ev); err != nil {
		return err
	}
	if !ev.inspects() || b.cb.Inspect == nil {
		return nil
	}

	ctx, cancel := b.handlerContext()
	defer cancel()

	stored, ok, err := b.cb.Inspect(ctx, ev.Location)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", ev.Location, err)
	}
	if !ok {
		return nil
	}
	return b.Tell(ev.Player, fmt.Sprintf("This container has %d energy stored", stored))
}
