// Package openai implements [ai.Provider] on top of OpenAI's Responses API.
//
// Messages are sent as typed "message" input items with streaming enabled.
// Only response.output_text.delta events are surfaced as fragments; error and
// response.failed events end the stream with an [*ai.StreamError].
package openai
