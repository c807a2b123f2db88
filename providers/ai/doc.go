// Package ai defines the vendor-neutral chat contract shared by every LLM
// provider in the backend.
//
// A [Provider] turns a normalized [Message] list into one vendor call and
// returns a [ChatStream]: a lazy, single-pass sequence of text fragments.
// Reading the stream drives the network I/O; the vendor request is only sent
// on first iteration and the response body is released when iteration ends,
// including on an early break.
//
// Vendor failures surface as [*APIError] (rejected request) or [*StreamError]
// (in-band error event) so callers can classify them by status or code.
package ai
