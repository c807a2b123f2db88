// Package gemini implements [ai.Provider] for Google Gemini through its
// OpenAI-compatible Chat Completions endpoint.
//
// Requests use Bearer authentication and the standard chat message array.
// Fragments come from choices[0].delta.content; the "[DONE]" sentinel ends
// the stream and an {"error": {...}} payload fails it.
package gemini
