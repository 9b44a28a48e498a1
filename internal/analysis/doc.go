// Package analysis derives profile and presence-event insights from a
// loaded snapshot: engagement, near-duplicate bios, look-alike usernames,
// per-user device statistics, RTT range queries, device clusters and
// presence transitions.
//
// Functions take plain slices and return fresh result values; nothing here
// holds locks. Long-lived engines (Engine, RTTIndex, Directory) are not safe
// for concurrent mutation and are guarded by their host.
package analysis
