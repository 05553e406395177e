// Package flow runs a small energy network on top of the capability
// registry: furnaces generate energy and push it up through columns of
// redstone lamps, which spend it to stay lit.
//
// The network only knows the blocks it has been told about through Place,
// Break and SetBurning, which the host bridge calls from game events. Each
// Step is one game tick:
//
//  1. Every tracked furnace that is burning generates Config.Generate.
//  2. If a lamp sits on top, the furnace extracts up to
//     Config.FurnaceTransfer through its top face and hands it to the lamp,
//     which receives it through its bottom face. A lamp with another lamp
//     above passes up to Config.LampTransfer further.
//  3. Every tracked lamp burns Config.LampBurn and is lit iff the burn
//     succeeded.
//
// Lamp state changes go to an Actuator; energy levels are sampled to a
// Telemetry sink.
package flow
