package registry

import "github.com/leofalp/aigochat/providers/ai"

// Catalog is the static list of supported models. Order is preserved by
// AvailableModels.
type Catalog []ai.ModelInfo

// DefaultCatalog is the model list served when no WithCatalog option is given.
var DefaultCatalog = Catalog{
	{ID: "gpt-5.2", Name: "GPT-5.2", Vendor: ai.VendorOpenAI, Description: "OpenAI's flagship general-purpose model"},
	{ID: "gpt-5.2-pro", Name: "GPT-5.2 Pro", Vendor: ai.VendorOpenAI, Description: "Higher-effort GPT-5.2 for hard problems"},
	{ID: "gemini-3-pro-preview", Name: "Gemini 3 Pro", Vendor: ai.VendorGoogle, Description: "Google's most capable Gemini model"},
	{ID: "gemini-3-flash-preview", Name: "Gemini 3 Flash", Vendor: ai.VendorGoogle, Description: "Fast, low-latency Gemini model"},
	{ID: "claude-opus-4-5", Name: "Claude Opus 4.5", Vendor: ai.VendorClaude, Description: "Anthropic's most intelligent model"},
	{ID: "claude-sonnet-4-5", Name: "Claude Sonnet 4.5", Vendor: ai.VendorClaude, Description: "Balanced Claude model for everyday work"},
	{ID: "claude-haiku-4-5", Name: "Claude Haiku 4.5", Vendor: ai.VendorClaude, Description: "Fastest Claude model"},
}

// vendorOf returns the vendor serving model.
func (c Catalog) vendorOf(model string) (ai.Vendor, bool) {
	for _, info := range c {
		if info.ID == model {
			return info.Vendor, true
		}
	}
	return "", false
}
