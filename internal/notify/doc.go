// Package notify implements the in-process notification hub.
//
// A Hub fans messages out to every subscription of a room. Rooms are
// created on first subscribe and removed with their last subscriber.
// Publishing never blocks: each subscription has a bounded buffer and a
// message that does not fit is dropped and counted.
//
// Transports (the RESP endpoint, tests) consume subscriptions; the core
// services only see the service.Publisher interface.
package notify
