// Package server exposes the chat backend over HTTP.
//
// Endpoints:
//   - GET    /                                  health check
//   - GET    /api/models                        models served by a configured vendor
//   - POST   /api/conversations                 create a conversation
//   - GET    /api/conversations                 conversation summaries, most recent first
//   - GET    /api/conversations/{id}/messages   stored messages of one conversation
//   - DELETE /api/conversations/{id}            delete a conversation and its messages
//   - POST   /api/chat                          stream a chat turn as server-sent events
//
// Errors are returned as {"detail": "<message>"}.
package server
