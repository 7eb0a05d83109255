package constant

const (
	DefaultPageLimit = 10
)

const (
	EmptyString = ""
)

// Retrieval engine defaults.
const (
	// EmbeddingDimension is the fixed width of every stored vector. Rows written
	// while the provider is down carry a zero vector of this width.
	EmbeddingDimension = 1536

	DefaultChunkMaxSize  = 1000
	DefaultChunkOverlap  = 100
	DefaultRecallLimit   = 5
	DefaultMinSimilarity = 0.5
	DefaultSearchLimit   = 5
	DefaultMinRelevance  = 0.5

	// EntityListCap bounds the per-category recency list in a conversation context.
	EntityListCap = 10
	// IntentHistoryCap bounds the per-conversation intent history (FIFO).
	IntentHistoryCap = 10
)

// Memory record types.
const (
	MemoryTypeConversation = "conversation"
	MemoryTypeFact         = "fact"
	MemoryTypePreference   = "preference"
)

// Roles of a conversational turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Prompt assembly templates (Hebrew-facing assistant).
const (
	// AssistantSystemPrompt is the base system prompt for the store assistant.
	AssistantSystemPrompt = "אתה עוזר חכם לניהול חנות ווקומרס. ענה בעברית, בקצרה ולעניין, והסתמך רק על המידע שסופק לך."

	// SemanticMemoryContextPromptTemplate injects recalled conversation snippets.
	SemanticMemoryContextPromptTemplate = "קטעי שיחה רלוונטיים מהעבר:\n%s"

	// DocumentContextPromptTemplate injects retrieved knowledge-base chunks.
	DocumentContextPromptTemplate = "מידע רלוונטי ממאגר הידע:\n%s"
)
