// Package events defines the events emitted on the event bus.
//
// Available event types:
//   - DispatchEvent: outcome of one dispatch request
//   - PositionEvent: driver position received from the position feed
package events
