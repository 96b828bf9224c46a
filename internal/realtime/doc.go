// package realtime keeps a live mirror of a room's queue and members.
//
// A [Sync] owns at most one WebSocket per current room. Push events are
// decoded into [Event] values and folded into [State] by [Apply], a pure
// reducer, in delivery order by a single read loop per socket. The
// imperative actions (create, join, leave, add, vote) call the REST API and
// leave the authoritative queue and tallies to the events that follow.
package realtime
