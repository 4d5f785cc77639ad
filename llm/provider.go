package llm

import (
	"net/http"
	"sync"
)

// Provider adapts the client to one model API's wire format. Implementations
// register themselves from init in the providers package; the client looks
// them up by the endpoint's configured provider name.
type Provider interface {
	// Name is the registry key, matching config values like "ollama" or
	// "anthropic".
	Name() string

	// BuildURL joins the configured base URL with the API's chat path.
	BuildURL(baseURL string) string

	// SetHeaders applies auth and content-type headers.
	SetHeaders(req *http.Request)

	// BuildRequestBody marshals a chat request. A nil temperature leaves
	// sampling to the endpoint's own default.
	BuildRequestBody(model string, messages []Message, temperature *float64, maxTokens int) ([]byte, error)

	// ParseResponse pulls the completion text and usage out of the API's
	// response body.
	ParseResponse(body []byte, model string) (*Response, error)
}

var (
	providerRegistry = make(map[string]Provider)
	providerMu       sync.RWMutex
)

// RegisterProvider makes a provider available by name. Later registrations
// under the same name win, which lets tests swap in fakes.
func RegisterProvider(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	providerRegistry[p.Name()] = p
}

// GetProvider returns the provider registered under name, or nil.
func GetProvider(name string) Provider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return providerRegistry[name]
}

// ListProviders returns the registered provider names in no particular
// order.
func ListProviders() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()

	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	return names
}
