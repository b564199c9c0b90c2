package persona

// Persona captures the character the bot speaks as, including the literal
// markers the fine-tuned model was trained on.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// Greeting and Farewell are the quotes shown above and below the conversation.
	Greeting    string `json:"greeting,omitempty"`
	Farewell    string `json:"farewell,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Pondering   string `json:"pondering,omitempty"`
	Avatar      string `json:"avatar,omitempty"`

	Prompt PromptFormat `json:"-"`
}

// PromptFormat holds the role tags and special tokens of the training corpus.
type PromptFormat struct {
	StartToken   string
	SepToken     string
	EndToken     string
	UserTag      string
	AssistantTag string
}

// DefaultPromptFormat matches the Cornell-style dialogue fine-tune.
func DefaultPromptFormat() PromptFormat {
	return PromptFormat{
		StartToken:   "<|startoftext|>",
		SepToken:     "<|sep|>",
		EndToken:     "<|endoftext|>",
		UserTag:      "Human:",
		AssistantTag: "Yoda:",
	}
}

// DefaultID identifies the built-in mentor.
const DefaultID = "yoda"

// Seed provides the built-in mentor persona.
func Seed() []Persona {
	return []Persona{
		{
			ID:    DefaultID,
			Name:  "Master Yoda",
			Title: "Yoda Bot - Jedi Wisdom Chatbot",
			Description: "This chatbot channels the wisdom of Master Yoda to help you with: " +
				"Self-reflection and introspection, Emotional guidance, Life decisions",
			Greeting: "Judge me by my size, do you? And well you should not. " +
				"For my ally is the Force, and a powerful ally it is.",
			Farewell:    "Do or do not, there is no try.",
			Placeholder: "Young padawan, what troubles you?",
			Pondering:   "Master Yoda is consulting the Force...",
			Avatar:      "🧙",
			Prompt:      DefaultPromptFormat(),
		},
	}
}
