// Package chat drives one chat turn from request to persisted history.
//
// An [Orchestrator] ensures the conversation exists, checks that the
// requested model is served, streams the reply fragments to the caller as
// [Event] values and, once the vendor stream is exhausted, saves the user
// message and the full reply as one unit of work.
//
// Generation and persistence are isolated from each other. A failure while
// streaming ends the turn with a single error event and saves nothing. A
// failure while saving is logged and swallowed: the caller still receives
// the done event. A consumer that stops ranging early is treated as a
// disconnect and nothing is saved.
package chat
