package ai

// Role is the author of a normalized chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three normalized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is one vendor-independent conversation entry. It is only used to
// build vendor requests; persisted messages have their own shape.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Vendor is the short provider-class key a model maps to.
type Vendor string

const (
	VendorOpenAI Vendor = "openai"
	VendorClaude Vendor = "claude"
	VendorGoogle Vendor = "google"
)

// ModelInfo describes one entry of the model catalog as exposed to clients.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Vendor      Vendor `json:"provider"`
	Description string `json:"description"`
}
