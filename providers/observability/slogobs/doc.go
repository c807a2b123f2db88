// Package slogobs implements observability.Provider on log/slog. Spans and
// metric updates become DEBUG records; everything else is ordinary logging
// through [Handler], which writes compact, pretty or JSON lines.
//
// [New] returns the Observer handed to the chat orchestrator. [NewLogger]
// returns just the *slog.Logger for components that only log.
package slogobs
