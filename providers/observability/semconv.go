package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across the providers, the registry and the chat orchestrator.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the vendor key (e.g., "openai", "claude", "google")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g., "gpt-5.2", "claude-sonnet-4-5")
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMFragments is the number of text fragments received from the vendor
	AttrLLMFragments = "llm.fragments"

	// AttrLLMVendorErrorType is the in-band error type or code reported by the vendor
	AttrLLMVendorErrorType = "llm.vendor_error.type"
)

// --- Chat Attributes ---

const (
	// AttrChatConversationID is the conversation a turn belongs to
	AttrChatConversationID = "chat.conversation_id"

	// AttrChatHistoryLength is the number of prior messages sent with the turn
	AttrChatHistoryLength = "chat.history_length"

	// AttrChatReplyLength is the byte length of the accumulated assistant reply
	AttrChatReplyLength = "chat.reply_length"

	// AttrChatOutcome is the caller-visible outcome of a turn ("completed", "errored", "cancelled")
	AttrChatOutcome = "chat.outcome"

	// AttrChatFailureKind is the classified failure kind of an errored turn
	AttrChatFailureKind = "chat.failure_kind"

	// AttrChatPersisted reports whether both messages of a turn were stored
	AttrChatPersisted = "chat.persisted"
)

// --- Storage Attributes ---

const (
	// AttrStoreBackend is the conversation store backend ("sqlite", "postgres", "memory")
	AttrStoreBackend = "store.backend"

	// AttrStoreMigratedRows is the number of legacy rows adopted during migration
	AttrStoreMigratedRows = "store.migrated_rows"

	// AttrStoreMessageID is the id assigned to a persisted message
	AttrStoreMessageID = "store.message_id"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPPath is the request path of an inbound request
	AttrHTTPPath = "http.path"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPDuration is the time until response headers arrived
	AttrHTTPDuration = "http.request.duration"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrDuration is the generic duration attribute
	AttrDuration = "duration"

	// AttrStatus is the span status ("ok", "error", "unset")
	AttrStatus = "status"

	// AttrStatusDescription is the optional status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanLLMStream wraps one streaming vendor call
	SpanLLMStream = "llm.stream"

	// SpanChatTurn wraps one orchestrated chat turn
	SpanChatTurn = "chat.turn"
)

// --- Event Names ---

const (
	// EventFirstFragment marks the arrival of the first text fragment
	EventFirstFragment = "llm.first_fragment"

	// EventStreamEnd marks the end of a vendor stream
	EventStreamEnd = "llm.stream.end"

	// EventConversationCreated marks the creation of a conversation
	EventConversationCreated = "store.conversation.created"

	// EventConversationDeleted marks the deletion of a conversation
	EventConversationDeleted = "store.conversation.deleted"

	// EventMessageSaved marks a persisted message
	EventMessageSaved = "store.message.saved"
)

// --- Metric Names ---

const (
	// MetricChatTurns counts orchestrated turns by outcome
	MetricChatTurns = "chat.turns"

	// MetricChatStreamDuration records the streaming phase duration in milliseconds
	MetricChatStreamDuration = "chat.stream.duration_ms"

	// MetricChatPersistFailures counts swallowed persistence failures
	MetricChatPersistFailures = "chat.persist.failures"
)
