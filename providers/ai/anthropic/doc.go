// Package anthropic implements [ai.Provider] for Anthropic's Messages API.
//
// The last system message is sent in the out-of-band "system" field, user and
// assistant messages pass through in order, and any other role is dropped.
// Authentication uses the x-api-key header rather than a Bearer token.
package anthropic
