// Package specdata defines typed Go views over the canonical value.Value
// tree for the two spec document types (spec.md §3): PromptSpec and
// ProviderSpec. Decoding is on-demand (Design Note d) rather than a direct
// json.Unmarshal, since the tree may have come from YAML or TOML by the time
// it reaches here.
package specdata

// ModelClass selects which optional PromptSpec sub-objects are legal.
type ModelClass string

const (
	ModelClassChat           ModelClass = "Chat"
	ModelClassReasoningChat  ModelClass = "ReasoningChat"
	ModelClassRAGChat        ModelClass = "RAGChat"
	ModelClassMultimodalChat ModelClass = "MultimodalChat"
	ModelClassAudioChat      ModelClass = "AudioChat"
	ModelClassVideoChat      ModelClass = "VideoChat"
)

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// StrictMode mirrors strictness.Mode at the spec-document level (PromptSpec
// carries its own default strict_mode field); the two are kept as distinct
// types so specdata has no import-time dependency on the strictness package.
type StrictMode string

const (
	StrictModeStrict StrictMode = "Strict"
	StrictModeWarn   StrictMode = "Warn"
	StrictModeCoerce StrictMode = "Coerce"
)

// Message is one entry in PromptSpec.Messages.
type Message struct {
	Role     Role
	Content  string
	Name     string
	Metadata map[string]any
}

// Tool describes one callable tool exposed to the model.
type Tool struct {
	Name        string
	Description string
	JSONSchema  map[string]any
}

// ToolChoiceMode is the PromptSpec.ToolChoice discriminant.
type ToolChoiceMode string

const (
	ToolChoiceAuto     ToolChoiceMode = "auto"
	ToolChoiceNone     ToolChoiceMode = "none"
	ToolChoiceRequired ToolChoiceMode = "required"
	ToolChoiceSpecific ToolChoiceMode = "specific"
)

// ToolChoice selects how the model is constrained to use tools.
type ToolChoice struct {
	Mode ToolChoiceMode
	Name string // only meaningful when Mode == ToolChoiceSpecific
}

// Sampling carries the optional generation-sampling knobs.
type Sampling struct {
	Temperature      *float64
	TopP             *float64
	TopK             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
}

// Limits carries the optional token-budget knobs.
type Limits struct {
	MaxOutputTokens *int
	MaxPromptTokens *int
	ReasoningTokens *int
}

// Media carries the optional multimodal input/output references.
type Media struct {
	InputImages []string
	InputAudio  string
	InputVideo  string
	OutputAudio bool
}

// Conversation carries optional multi-turn conversation linkage.
type Conversation struct {
	ParentMessageID string
}

// RAG carries optional retrieval-augmented-generation configuration.
type RAG struct {
	Enabled bool
	Sources []string
}

// ResponseFormat carries the optional structured-output request.
type ResponseFormat struct {
	Type   string
	Schema map[string]any
}

// PromptSpec is the uniform request description (spec.md §3).
type PromptSpec struct {
	SpecVersion    string
	ID             string
	ModelClass     ModelClass
	Messages       []Message
	Tools          []Tool
	ToolChoice     *ToolChoice
	Sampling       *Sampling
	Limits         *Limits
	Media          *Media
	RAG            *RAG
	Conversation   *Conversation
	ResponseFormat *ResponseFormat
	StrictMode     StrictMode

	// UnknownTopLevelFields is populated by the decoder with any top-level
	// key it did not recognize, so Strict-mode validation can reject them
	// without the decoder itself enforcing that rule.
	UnknownTopLevelFields []string
}

// Endpoint describes one HTTP surface a model exposes.
type Endpoint struct {
	Method   string
	Path     string
	Protocol string
}

// Endpoints groups a model's chat-completion surfaces.
type Endpoints struct {
	ChatCompletion          Endpoint
	StreamingChatCompletion *Endpoint
}

// InputModes is the capability-flag set for accepted input shapes.
type InputModes struct {
	Messages   bool
	SingleText bool
	Images     bool
	Audio      bool
	Video      bool
}

// Tooling describes a model's tool-calling capabilities.
type Tooling struct {
	ToolsSupported         bool
	ParallelToolCallsDefault bool
	PermittedToolChoiceModes []ToolChoiceMode
	PermittedToolTypes       []string
}

// JSONOutputStrategy enumerates how a model can be made to emit JSON.
type JSONOutputStrategy string

const (
	JSONOutputNative       JSONOutputStrategy = "native"
	JSONOutputJSONSchema   JSONOutputStrategy = "json_schema"
	JSONOutputSystemPrompt JSONOutputStrategy = "system_prompt"
	JSONOutputNone         JSONOutputStrategy = "none"
)

// JSONOutput describes how structured output is requested from a model.
type JSONOutput struct {
	NativeParam string
	Strategy    JSONOutputStrategy
}

// SystemPromptLocation constrains where a system prompt may be placed.
type SystemPromptLocation string

const (
	SystemPromptFirst SystemPromptLocation = "first"
	SystemPromptAny   SystemPromptLocation = "any"
	SystemPromptNone  SystemPromptLocation = "none"
)

// ConflictStrategy names a mutually-exclusive-group resolution strategy
// (spec.md §4.5). Kept as a string here (not the conflict package's enum)
// to avoid specdata depending on conflict.
type ConflictStrategy string

const (
	ConflictPreferenceOrder ConflictStrategy = "PreferenceOrder"
	ConflictFirstWins       ConflictStrategy = "FirstWins"
	ConflictLastWins        ConflictStrategy = "LastWins"
	ConflictMostSpecific    ConflictStrategy = "MostSpecific"
	ConflictFail            ConflictStrategy = "Fail"
)

// IsCustomStrategy reports whether tag names a Custom(tag) strategy rather
// than one of the built-ins above.
func IsCustomStrategy(tag string) bool {
	switch ConflictStrategy(tag) {
	case ConflictPreferenceOrder, ConflictFirstWins, ConflictLastWins, ConflictMostSpecific, ConflictFail:
		return false
	default:
		return true
	}
}

// MutuallyExclusiveGroup is one set of field paths a model forbids from
// co-occurring.
type MutuallyExclusiveGroup struct {
	Paths    []string
	Strategy string // one of ConflictStrategy's values, or a Custom(tag) name
}

// Constraints carries a model's structural and conflict rules.
type Constraints struct {
	SystemPromptLocation        SystemPromptLocation
	ForbidUnknownTopLevelFields bool
	MutuallyExclusive           []MutuallyExclusiveGroup
	ResolutionPreferences       []string
	MaxToolSchemaBytes          int
	MaxSystemPromptBytes        int
}

// PathMapping binds one uniform JSONPath to a provider JSONPath, optionally
// with a transformation hint consumed by the transform package when
// building the pipeline.
type PathMapping struct {
	UniformPath  string
	ProviderPath string
	Hint         string
}

// Mappings groups a model's uniform-to-provider path bindings.
type Mappings struct {
	Paths           []PathMapping
	FlagMappings    map[string]string
	TransformHints  map[string]string
}

// ResponseNormalizationSync describes how a synchronous response is mapped
// back to the uniform result shape.
type ResponseNormalizationSync struct {
	ContentPath      string
	FinishReasonPath string
	FinishReasonMap  map[string]string
}

// ResponseNormalizationStream describes the optional streaming surface.
type ResponseNormalizationStream struct {
	Protocol      string
	EventSelector string
}

// ResponseNormalization groups a model's response-shape bindings.
type ResponseNormalization struct {
	Sync   ResponseNormalizationSync
	Stream *ResponseNormalizationStream
}

// ModelSpec describes one model a provider exposes.
type ModelSpec struct {
	ID                    string
	Aliases               []string
	Family                string
	Endpoints             Endpoints
	InputModes            InputModes
	Tooling               Tooling
	JSONOutput            JSONOutput
	Parameters            map[string]any
	Constraints           Constraints
	Mappings              Mappings
	ResponseNormalization ResponseNormalization
}

// Provider carries a ProviderSpec's top-level identity.
type Provider struct {
	Name           string
	BaseURL        string
	DefaultHeaders map[string]string
}

// ProviderSpec is the provider capability description (spec.md §3).
type ProviderSpec struct {
	SpecVersion string
	Provider    Provider
	Models      []ModelSpec
}

// FindModel returns the ModelSpec with the given id or alias.
func (p *ProviderSpec) FindModel(idOrAlias string) (*ModelSpec, bool) {
	for i := range p.Models {
		m := &p.Models[i]

		if m.ID == idOrAlias {
			return m, true
		}

		for _, alias := range m.Aliases {
			if alias == idOrAlias {
				return m, true
			}
		}
	}

	return nil, false
}
