// Package websocket pushes live occupancy changes to watching clients.
//
// A central Hub owns every connection. Each client watches one match, chosen
// with the ?match=<id> query parameter, and gets:
//   - a "snapshot" message with the match's entities right after connecting
//   - an "occupancy" message for every place, move, advance or removal
//
// Hub implements service.Notifier, so the match service feeds it directly.
// Notify never blocks the service: messages are queued on a buffered channel
// and dropped with a warning when the queue is full.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	hub.SetSnapshotFunc(func(id string) (interface{}, error) {
//		return svc.Entities(context.Background(), id)
//	})
//	go hub.Run()
//
// Clients only listen. Reads exist to keep the connection alive and notice
// disconnects; each client has a read pump and a write pump goroutine.
package websocket
