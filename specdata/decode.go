package specdata

import (
	"strconv"
	"strings"

	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/value"
)

// DecodePromptSpec decodes a loaded, resolved value.Value tree into a typed
// PromptSpec. It collects structural violations (missing/mistyped required
// fields) rather than stopping at the first one, matching the validator's
// "never throws on the first finding" contract (spec.md §4.2) — callers
// that need hard failure should treat a non-empty violation slice as fatal.
func DecodePromptSpec(v value.Value) (*PromptSpec, []bridgeerr.Violation) {
	var violations []bridgeerr.Violation

	if v.Kind() != value.KindObject {
		return nil, append(violations, bridgeerr.Violation{
			Path: "$", Message: "PromptSpec root must be an object", Rule: "type",
		})
	}

	spec := &PromptSpec{StrictMode: StrictModeWarn}

	known := map[string]bool{
		"spec_version": true, "id": true, "model_class": true, "messages": true,
		"tools": true, "tool_choice": true, "sampling": true, "limits": true,
		"media": true, "rag": true, "conversation": true, "response_format": true,
		"strict_mode": true,
	}

	for _, k := range v.Keys() {
		if !known[k] {
			spec.UnknownTopLevelFields = append(spec.UnknownTopLevelFields, k)
		}
	}

	if sv, ok := stringField(v, "spec_version"); ok {
		spec.SpecVersion = sv
	} else {
		violations = append(violations, missing("$.spec_version"))
	}

	if id, ok := stringField(v, "id"); ok {
		spec.ID = id
	} else {
		violations = append(violations, missing("$.id"))
	}

	if mc, ok := stringField(v, "model_class"); ok {
		spec.ModelClass = ModelClass(mc)
	} else {
		violations = append(violations, missing("$.model_class"))
	}

	if msgsV, ok := v.Field("messages"); ok && msgsV.Kind() == value.KindArray {
		arr, _ := msgsV.AsArray()

		for i, m := range arr {
			msg, msgViolations := decodeMessage(m, i)
			spec.Messages = append(spec.Messages, msg)
			violations = append(violations, msgViolations...)
		}
	} else {
		violations = append(violations, missing("$.messages"))
	}

	if len(spec.Messages) == 0 {
		violations = append(violations, bridgeerr.Violation{
			Path: "$.messages", Message: "messages must be non-empty", Rule: "non_empty",
		})
	}

	if toolsV, ok := v.Field("tools"); ok && toolsV.Kind() == value.KindArray {
		arr, _ := toolsV.AsArray()
		for _, t := range arr {
			spec.Tools = append(spec.Tools, decodeTool(t))
		}
	}

	if tcV, ok := v.Field("tool_choice"); ok {
		tc := decodeToolChoice(tcV)
		spec.ToolChoice = &tc

		if len(spec.Tools) == 0 {
			violations = append(violations, bridgeerr.Violation{
				Path: "$.tool_choice", Message: "tool_choice present without any tools", Rule: "tool_choice_requires_tools",
			})
		}
	}

	if sv, ok := v.Field("sampling"); ok {
		spec.Sampling = decodeSampling(sv)
	}

	if lv, ok := v.Field("limits"); ok {
		limits := decodeLimits(lv)
		spec.Limits = limits

		if limits.ReasoningTokens != nil && spec.ModelClass != ModelClassReasoningChat {
			violations = append(violations, bridgeerr.Violation{
				Path: "$.limits.reasoning_tokens", Message: "reasoning_tokens requires model_class=ReasoningChat", Rule: "reasoning_tokens_model_class",
			})
		}
	}

	if mv, ok := v.Field("media"); ok {
		media := decodeMedia(mv)
		spec.Media = media

		if media.InputVideo != "" && spec.ModelClass != ModelClassVideoChat && spec.ModelClass != ModelClassMultimodalChat {
			violations = append(violations, bridgeerr.Violation{
				Path: "$.media.input_video", Message: "input_video requires model_class ∈ {VideoChat, MultimodalChat}", Rule: "input_video_model_class",
			})
		}

		if media.InputAudio != "" && spec.ModelClass != ModelClassAudioChat && spec.ModelClass != ModelClassMultimodalChat {
			violations = append(violations, bridgeerr.Violation{
				Path: "$.media.input_audio", Message: "input_audio requires model_class ∈ {AudioChat, MultimodalChat}", Rule: "input_audio_model_class",
			})
		}
	}

	if rv, ok := v.Field("rag"); ok {
		spec.RAG = decodeRAG(rv)

		if spec.ModelClass != ModelClassRAGChat {
			violations = append(violations, bridgeerr.Violation{
				Path: "$.rag", Message: "rag requires model_class=RAGChat", Rule: "rag_model_class",
			})
		}
	}

	if cv, ok := v.Field("conversation"); ok {
		conv := decodeConversation(cv)
		spec.Conversation = conv

		if len(conv.ParentMessageID) > 0 && len(conv.ParentMessageID) < 8 {
			violations = append(violations, bridgeerr.Violation{
				Path: "$.conversation.parent_message_id", Message: "parent_message_id must be at least 8 characters", Rule: "parent_message_id_length",
			})
		}
	}

	if rfv, ok := v.Field("response_format"); ok {
		spec.ResponseFormat = decodeResponseFormat(rfv)
	}

	if sm, ok := stringField(v, "strict_mode"); ok {
		spec.StrictMode = StrictMode(sm)
	}

	if len(spec.UnknownTopLevelFields) > 0 && spec.StrictMode == StrictModeStrict {
		violations = append(violations, bridgeerr.Violation{
			Path: "$", Message: "unknown top-level fields in Strict mode: " + joinStrings(spec.UnknownTopLevelFields), Rule: "no_unknown_fields_strict",
		})
	}

	return spec, violations
}

func decodeMessage(v value.Value, idx int) (Message, []bridgeerr.Violation) {
	var violations []bridgeerr.Violation

	msg := Message{}

	if r, ok := stringField(v, "role"); ok {
		msg.Role = Role(r)
	} else {
		violations = append(violations, missing(indexPath("$.messages", idx, "role")))
	}

	if c, ok := stringField(v, "content"); ok {
		msg.Content = c
	} else {
		violations = append(violations, missing(indexPath("$.messages", idx, "content")))
	}

	if n, ok := stringField(v, "name"); ok {
		msg.Name = n
	}

	if mv, ok := v.Field("metadata"); ok {
		msg.Metadata, _ = mv.ToAny().(map[string]any)
	}

	return msg, violations
}

func decodeTool(v value.Value) Tool {
	t := Tool{}

	t.Name, _ = stringField(v, "name")
	t.Description, _ = stringField(v, "description")

	if sv, ok := v.Field("json_schema"); ok {
		t.JSONSchema, _ = sv.ToAny().(map[string]any)
	}

	return t
}

func decodeToolChoice(v value.Value) ToolChoice {
	if v.Kind() == value.KindString {
		s, _ := v.AsString()
		return ToolChoice{Mode: ToolChoiceMode(s)}
	}

	tc := ToolChoice{Mode: ToolChoiceSpecific}
	tc.Name, _ = stringField(v, "name")

	return tc
}

func decodeSampling(v value.Value) *Sampling {
	s := &Sampling{}
	s.Temperature = numberField(v, "temperature")
	s.TopP = numberField(v, "top_p")
	s.TopK = numberField(v, "top_k")
	s.FrequencyPenalty = numberField(v, "frequency_penalty")
	s.PresencePenalty = numberField(v, "presence_penalty")

	return s
}

func decodeLimits(v value.Value) *Limits {
	l := &Limits{}

	if n := numberField(v, "max_output_tokens"); n != nil {
		i := int(*n)
		l.MaxOutputTokens = &i
	}

	if n := numberField(v, "max_prompt_tokens"); n != nil {
		i := int(*n)
		l.MaxPromptTokens = &i
	}

	if n := numberField(v, "reasoning_tokens"); n != nil {
		i := int(*n)
		l.ReasoningTokens = &i
	}

	return l
}

func decodeMedia(v value.Value) *Media {
	m := &Media{}

	if imgs, ok := v.Field("input_images"); ok && imgs.Kind() == value.KindArray {
		arr, _ := imgs.AsArray()
		for _, item := range arr {
			if s, ok := item.AsString(); ok {
				m.InputImages = append(m.InputImages, s)
			}
		}
	}

	m.InputAudio, _ = stringField(v, "input_audio")
	m.InputVideo, _ = stringField(v, "input_video")

	if b, ok := v.Field("output_audio"); ok {
		m.OutputAudio, _ = b.AsBool()
	}

	return m
}

func decodeRAG(v value.Value) *RAG {
	r := &RAG{}
	if b, ok := v.Field("enabled"); ok {
		r.Enabled, _ = b.AsBool()
	}

	if sv, ok := v.Field("sources"); ok && sv.Kind() == value.KindArray {
		arr, _ := sv.AsArray()
		for _, item := range arr {
			if s, ok := item.AsString(); ok {
				r.Sources = append(r.Sources, s)
			}
		}
	}

	return r
}

func decodeConversation(v value.Value) *Conversation {
	c := &Conversation{}
	c.ParentMessageID, _ = stringField(v, "parent_message_id")

	return c
}

func decodeResponseFormat(v value.Value) *ResponseFormat {
	rf := &ResponseFormat{}
	rf.Type, _ = stringField(v, "type")

	if sv, ok := v.Field("schema"); ok {
		rf.Schema, _ = sv.ToAny().(map[string]any)
	}

	return rf
}

// --- field accessor helpers ---

func stringField(v value.Value, key string) (string, bool) {
	f, ok := v.Field(key)
	if !ok {
		return "", false
	}

	return f.AsString()
}

func numberField(v value.Value, key string) *float64 {
	f, ok := v.Field(key)
	if !ok {
		return nil
	}

	n, ok := f.AsNumber()
	if !ok {
		return nil
	}

	return &n
}

func missing(path string) bridgeerr.Violation {
	return bridgeerr.Violation{Path: path, Message: "required field is missing", Rule: "required"}
}

func indexPath(base string, idx int, field string) string {
	return base + "[" + strconv.Itoa(idx) + "]." + field
}

func joinStrings(ss []string) string {
	return strings.Join(ss, ", ")
}
