package domain

// Chat roles understood by every provider adapter.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape passed from prompt
// assembly to the LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the generated text of one completion and the number of
// tokens the provider billed for the whole exchange.
type ChatResponse struct {
	Content     string
	TotalTokens int
}
