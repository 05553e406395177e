// Package autosave flushes cached capabilities to the block data store on a
// cron schedule, independently of host world saves.
//
// Schedules use the five-field cron format ("*/5 * * * *") or a descriptor
// such as "@hourly" or "@every 2m". Overlapping runs are skipped.
package autosave
