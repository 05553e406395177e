package main

import (
	"context"

	"github.com/nerrad567/blockenergy-core/internal/capability"
	"github.com/nerrad567/blockenergy-core/internal/flow"
	"github.com/nerrad567/blockenergy-core/internal/hostbridge"
	"github.com/nerrad567/blockenergy-core/internal/world"
)

// flushNotifier is satisfied by *api.Server.
type flushNotifier interface {
	NotifyFlush(w string, reason string, written int, err error)
}

// hostEvents routes host callbacks to the registries and the flow network.
// The bridge is built before the network it drives, so network and feed
// are filled in after construction and before the bridge starts.
type hostEvents struct {
	regs    *capability.Registries
	network *flow.Network
	feed    flushNotifier
}

func (h *hostEvents) callbacks() hostbridge.Callbacks {
	return hostbridge.Callbacks{
		WorldSaved:     h.worldSaved,
		WorldUnloaded:  h.worldUnloaded,
		BlockPlaced:    h.blockPlaced,
		BlockBroken:    h.blockBroken,
		FurnaceBurning: h.furnaceBurning,
		Inspect:        h.inspect,
	}
}

func (h *hostEvents) worldSaved(ctx context.Context, w world.ID) (int, error) {
	n, err := h.regs.OnWorldSaved(ctx, w)
	h.notify(w, "saved", n, err)
	return n, err
}

// worldUnloaded drops w from the network before evicting it, otherwise the
// next tick would load its capabilities straight back.
func (h *hostEvents) worldUnloaded(ctx context.Context, w world.ID) (int, error) {
	h.network.ForgetWorld(w)
	n, err := h.regs.OnWorldUnloaded(ctx, w)
	h.notify(w, "unloaded", n, err)
	return n, err
}

func (h *hostEvents) notify(w world.ID, reason string, n int, err error) {
	if h.feed != nil {
		h.feed.NotifyFlush(string(w), reason, n, err)
	}
}

func (h *hostEvents) blockPlaced(ctx context.Context, loc world.Location, kind flow.Kind) error {
	return h.network.Place(ctx, loc, kind)
}

func (h *hostEvents) blockBroken(loc world.Location) {
	h.network.Break(loc)
}

func (h *hostEvents) furnaceBurning(loc world.Location, burning bool) {
	h.network.SetBurning(loc, burning)
}

func (h *hostEvents) inspect(ctx context.Context, loc world.Location) (int32, bool, error) {
	return h.network.Inspect(ctx, loc)
}
