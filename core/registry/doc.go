// Package registry maps model identifiers to the vendor providers that serve
// them.
//
// A [Registry] is built once at process start from an explicit set of
// [VendorConfig] values. Vendors without a credential are skipped, so the
// registry only ever holds initialized providers. After [New] returns, the
// registry is immutable and safe for concurrent use without locking.
//
// Dispatch is deterministic: every model in the [Catalog] belongs to exactly
// one vendor, and there are no retries and no fallback between vendors.
package registry
