// Package server implements the HTTP and WebSocket server for hxchat.
//
// Pages are rendered from templates through a shared layout; requests sent by
// htmx (HX-Request: true) receive only the page fragment. The chat room is a
// Hub of WebSocket clients: every accepted message is appended to the chat
// history and the re-rendered message list is pushed to all open connections.
//
// The implementation is organized into specialized files for configuration, hub
// management, clients, routing, middleware, and HTTP handlers.
package server
