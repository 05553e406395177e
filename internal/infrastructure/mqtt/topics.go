package mqtt

import (
	"fmt"
	"strings"

	"github.com/nerrad567/blockenergy-core/internal/world"
)

// Topic roots. World identifiers appear as a single topic level and must
// not contain '/', '+' or '#'.
const (
	TopicPrefix     = "blockenergy"
	TopicPrefixHost = TopicPrefix + "/host"
	TopicPrefixCore = TopicPrefix + "/core"
)

// Topics builds every topic core publishes or subscribes to.
//
//	mqtt.Topics{}.WorldSaved("overworld")
//	// blockenergy/host/world/overworld/saved
type Topics struct{}

// WorldSaved is published by the host after it saved w.
func (Topics) WorldSaved(w world.ID) string {
	return fmt.Sprintf("%s/world/%s/saved", TopicPrefixHost, w)
}

// WorldUnloaded is published by the host after it unloaded w.
func (Topics) WorldUnloaded(w world.ID) string {
	return fmt.Sprintf("%s/world/%s/unloaded", TopicPrefixHost, w)
}

// AllWorldSaved matches WorldSaved for every world.
func (Topics) AllWorldSaved() string {
	return TopicPrefixHost + "/world/+/saved"
}

// AllWorldUnloaded matches WorldUnloaded for every world.
func (Topics) AllWorldUnloaded() string {
	return TopicPrefixHost + "/world/+/unloaded"
}

// BlockPlaced carries block placement events.
func (Topics) BlockPlaced() string {
	return TopicPrefixHost + "/block/placed"
}

// BlockBroken carries block break events.
func (Topics) BlockBroken() string {
	return TopicPrefixHost + "/block/broken"
}

// BlockState carries furnace burn state changes.
func (Topics) BlockState() string {
	return TopicPrefixHost + "/block/state"
}

// PlayerInteract carries player right-click events.
func (Topics) PlayerInteract() string {
	return TopicPrefixHost + "/player/interact"
}

// BlockCommand addresses a state change for the block at loc.
//
// Example: blockenergy/core/command/block/overworld/10/64/-3
func (Topics) BlockCommand(loc world.Location) string {
	return fmt.Sprintf("%s/command/block/%s/%d/%d/%d", TopicPrefixCore, loc.World, loc.X, loc.Y, loc.Z)
}

// Chat addresses a message to one player.
func (Topics) Chat(player string) string {
	return fmt.Sprintf("%s/chat/%s", TopicPrefixCore, player)
}

// CoreStatus is the retained online/offline status of core.
func (Topics) CoreStatus() string {
	return TopicPrefixCore + "/status"
}

// WorldFromTopic extracts the world from a WorldSaved or WorldUnloaded topic.
func (Topics) WorldFromTopic(topic string) (world.ID, error) {
	rest, ok := strings.CutPrefix(topic, TopicPrefixHost+"/world/")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnexpectedTopic, topic)
	}
	id, event, ok := strings.Cut(rest, "/")
	if !ok || id == "" || strings.Contains(event, "/") {
		return "", fmt.Errorf("%w: %q", ErrUnexpectedTopic, topic)
	}
	return world.ID(id), nil
}
