// Package hostbridge is the integration layer between the game host and
// core.
//
// The host plugin publishes world lifecycle, block and interaction events
// over MQTT. The bridge validates each payload against an embedded JSON
// Schema, decodes it and calls the matching function in Callbacks. Core
// packages never subscribe to anything themselves; main wires the
// registries and the flow network into a Callbacks value.
//
// In the other direction the bridge implements flow.Actuator, publishing
// lamp state commands, and sends chat replies for energy inspections. Every
// outbound message carries a random UUID so the host can drop duplicates
// delivered under QoS 1.
package hostbridge
