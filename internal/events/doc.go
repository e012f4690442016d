// Package events decouples producers of domain events from the components
// that react to them.
//
// Services emit an Event through an EventEmitter; every registered
// EventHandler sees it and decides by Type whether to act.
package events
