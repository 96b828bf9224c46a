// Package models defines the domain entities shared by the jamroom client.
//
// The package contains two categories of types:
//
// 1. Wire types decoded from the rooms backend and the provider Web API
//   - [Room], [QueueItem], [Member] : room state mirrored over REST and WebSocket
//   - [RoomExport] : a room and its queue captured for export
//   - [Track], [Artist], [Album], [Image] : provider track metadata
//   - [UserProfile], [PlayerSnapshot], [StreamingToken]
//   - [CreateRoomRequest], [AddToQueueRequest], [VoteRequest] : validated request bodies
//
// 2. Persistent entities stored in the local sqlite history
//   - [RecentRoom] : rooms this client created or joined
//   - [CachedTrack] : tracks seen in search results and queues
//
// Persistent entities implement [Model]; [Repository] defines the CRUD surface over them.
package models
