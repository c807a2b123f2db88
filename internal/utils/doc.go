// Package utils holds the HTTP plumbing shared by the vendor providers:
// [OpenStream] sends a JSON request and hands back the still-open response,
// [SSEReader] splits a Server-Sent Events body into events, and
// [HTTPStatusError] keeps the status and body of a rejected request for
// error classification.
package utils
