package hostbridge

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/blockenergy-core/internal/world"
)

// Host interaction values core reacts to.
const (
	ActionLeftClickAir  = "LEFT_CLICK_AIR"
	ActionRightClickAir = "RIGHT_CLICK_AIR"
	HandMain            = "HAND"
	ItemInspect         = "STICK"
)

// WorldEvent is the payload of a world saved or unloaded message.
// Topic: blockenergy/host/world/{world}/saved|unloaded
type WorldEvent struct {
	// World is optional; when set it must match the topic.
	World     world.ID  `json:"world,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// BlockEvent is the payload of a block placed or broken message.
// Topic: blockenergy/host/block/placed|broken
type BlockEvent struct {
	world.Location
	Material  string    `json:"material"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// BlockStateEvent reports a furnace starting or stopping to burn.
// Topic: blockenergy/host/block/state
type BlockStateEvent struct {
	world.Location
	Material  string    `json:"material"`
	Burning   bool      `json:"burning"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// InteractEvent is a player clicking a block.
// Topic: blockenergy/host/player/interact
type InteractEvent struct {
	world.Location
	Player    string    `json:"player"`
	Action    string    `json:"action"`
	Hand      string    `json:"hand"`
	Item      string    `json:"item,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// inspects reports whether the interaction asks for an energy readout:
// any interaction with a block while holding the inspect item in the main
// hand. Clicks into the air have no block to read.
func (e InteractEvent) inspects() bool {
	if e.Action == ActionLeftClickAir || e.Action == ActionRightClickAir {
		return false
	}
	return e.Hand == HandMain && e.Item == ItemInspect
}

// BlockCommand tells the host to change a block's visual state.
// Topic: blockenergy/core/command/block/{world}/{x}/{y}/{z}
type BlockCommand struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Location  world.Location `json:"location"`
	Lit       bool           `json:"lit"`
}

// ChatMessage is a line of chat for one player.
// Topic: blockenergy/core/chat/{player}
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Player    string    `json:"player"`
	Text      string    `json:"text"`
}
