package agent

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of transcript kept by model-backed callers.
type Message struct {
	Role    Role
	Content string
}
