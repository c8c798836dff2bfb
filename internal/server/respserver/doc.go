// Package respserver exposes notification rooms over RESP2 pub/sub.
//
// Any Redis client can listen to a dapp session room:
//
//	SUBSCRIBE <sessionId>
//
// Supported commands: PING, SUBSCRIBE, UNSUBSCRIBE, QUIT. Messages are
// pushed as the standard three element array
// ["message", <room>, <json envelope>].
package respserver
