package specdata

import (
	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/jsonpath"
	"github.com/kesh-io/promptbridge/internal/urlutil"
	"github.com/kesh-io/promptbridge/value"
)

// DecodeProviderSpec decodes a loaded value.Value tree into a typed
// ProviderSpec, collecting semantic violations from spec.md §4.2's
// ProviderSpec rule list (JSONPath validity, capability coherence,
// input-mode/family compatibility, endpoint security class) alongside the
// structural decode.
func DecodeProviderSpec(v value.Value) (*ProviderSpec, []bridgeerr.Violation) {
	var violations []bridgeerr.Violation

	if v.Kind() != value.KindObject {
		return nil, append(violations, bridgeerr.Violation{
			Path: "$", Message: "ProviderSpec root must be an object", Rule: "type",
		})
	}

	spec := &ProviderSpec{}
	spec.SpecVersion, _ = stringField(v, "spec_version")

	if pv, ok := v.Field("provider"); ok {
		spec.Provider = decodeProvider(pv)
	} else {
		violations = append(violations, missing("$.provider"))
	}

	if msv, ok := v.Field("models"); ok && msv.Kind() == value.KindArray {
		arr, _ := msv.AsArray()

		for i, m := range arr {
			model, modelViolations := decodeModelSpec(m, i, spec.Provider.BaseURL)
			spec.Models = append(spec.Models, model)
			violations = append(violations, modelViolations...)
		}
	} else {
		violations = append(violations, missing("$.models"))
	}

	return spec, violations
}

func decodeProvider(v value.Value) Provider {
	p := Provider{}
	p.Name, _ = stringField(v, "name")
	p.BaseURL, _ = stringField(v, "base_url")

	if hv, ok := v.Field("default_headers"); ok && hv.Kind() == value.KindObject {
		p.DefaultHeaders = map[string]string{}
		for _, k := range hv.Keys() {
			if fv, ok := hv.Field(k); ok {
				if s, ok := fv.AsString(); ok {
					p.DefaultHeaders[k] = s
				}
			}
		}
	}

	return p
}

func decodeModelSpec(v value.Value, idx int, baseURL string) (ModelSpec, []bridgeerr.Violation) {
	var violations []bridgeerr.Violation

	m := ModelSpec{}
	m.ID, _ = stringField(v, "id")
	m.Family, _ = stringField(v, "family")

	if av, ok := v.Field("aliases"); ok && av.Kind() == value.KindArray {
		arr, _ := av.AsArray()
		for _, item := range arr {
			if s, ok := item.AsString(); ok {
				m.Aliases = append(m.Aliases, s)
			}
		}
	}

	base := indexPath("$.models", idx, "")

	if ev, ok := v.Field("endpoints"); ok {
		m.Endpoints, violations = decodeEndpoints(ev, base, baseURL, violations)
	} else {
		violations = append(violations, missing(base+"endpoints"))
	}

	if imv, ok := v.Field("input_modes"); ok {
		m.InputModes = decodeInputModes(imv)
	}

	if err := checkInputModeFamily(m.InputModes, m.Family); err != "" {
		violations = append(violations, bridgeerr.Violation{
			Path: base + "input_modes", Message: err, Rule: "input_modes_family",
		})
	}

	if tv, ok := v.Field("tooling"); ok {
		m.Tooling = decodeTooling(tv)

		if m.Tooling.ToolsSupported {
			hasAuto := false

			for _, mode := range m.Tooling.PermittedToolChoiceModes {
				if mode == ToolChoiceAuto {
					hasAuto = true
					break
				}
			}

			if !hasAuto {
				violations = append(violations, bridgeerr.Violation{
					Path: base + "tooling.permitted_tool_choice_modes", Message: "permitted_tool_choice_modes must include 'auto' when tools_supported is true", Rule: "tool_choice_modes_require_auto",
				})
			}
		}
	}

	if jv, ok := v.Field("json_output"); ok {
		m.JSONOutput.NativeParam, _ = stringField(jv, "native_param")

		if s, ok := stringField(jv, "strategy"); ok {
			m.JSONOutput.Strategy = JSONOutputStrategy(s)
		}
	}

	if pv, ok := v.Field("parameters"); ok {
		m.Parameters, _ = pv.ToAny().(map[string]any)
	}

	if cv, ok := v.Field("constraints"); ok {
		m.Constraints = decodeConstraints(cv)
	}

	if mv, ok := v.Field("mappings"); ok {
		mappings, mappingViolations := decodeMappings(mv, base)
		m.Mappings = mappings
		violations = append(violations, mappingViolations...)
	}

	if rnv, ok := v.Field("response_normalization"); ok {
		rn, rnViolations := decodeResponseNormalization(rnv, base)
		m.ResponseNormalization = rn
		violations = append(violations, rnViolations...)
	}

	return m, violations
}

func decodeEndpoints(v value.Value, base, providerBaseURL string, violations []bridgeerr.Violation) (Endpoints, []bridgeerr.Violation) {
	e := Endpoints{}

	if cv, ok := v.Field("chat_completion"); ok {
		e.ChatCompletion = decodeEndpoint(cv)
		violations = checkEndpointSecurity(e.ChatCompletion, providerBaseURL, base+"endpoints.chat_completion", violations)
	} else {
		violations = append(violations, missing(base+"endpoints.chat_completion"))
	}

	if sv, ok := v.Field("streaming_chat_completion"); ok {
		ep := decodeEndpoint(sv)
		e.StreamingChatCompletion = &ep
		violations = checkEndpointSecurity(ep, providerBaseURL, base+"endpoints.streaming_chat_completion", violations)
	}

	return e, violations
}

func decodeEndpoint(v value.Value) Endpoint {
	e := Endpoint{}
	e.Method, _ = stringField(v, "method")
	e.Path, _ = stringField(v, "path")
	e.Protocol, _ = stringField(v, "protocol")

	return e
}

func checkEndpointSecurity(e Endpoint, providerBaseURL, path string, violations []bridgeerr.Violation) []bridgeerr.Violation {
	if providerBaseURL == "" || e.Path == "" {
		return violations
	}

	same, err := urlutil.SameClass(providerBaseURL, e.Path)
	if err == nil && !same {
		violations = append(violations, bridgeerr.Violation{
			Path: path, Message: "endpoint URL must share the same security class as the provider base_url", Rule: "endpoint_security_class",
		})
	}

	return violations
}

func decodeInputModes(v value.Value) InputModes {
	im := InputModes{}

	if b, ok := v.Field("messages"); ok {
		im.Messages, _ = b.AsBool()
	}

	if b, ok := v.Field("single_text"); ok {
		im.SingleText, _ = b.AsBool()
	}

	if b, ok := v.Field("images"); ok {
		im.Images, _ = b.AsBool()
	}

	if b, ok := v.Field("audio"); ok {
		im.Audio, _ = b.AsBool()
	}

	if b, ok := v.Field("video"); ok {
		im.Video, _ = b.AsBool()
	}

	return im
}

// checkInputModeFamily implements spec.md §4.2's "input_modes must be
// compatible with model_family" rule: image => multimodal; audio => audio
// or multimodal; video => video or multimodal; chat family forbids
// non-text.
func checkInputModeFamily(im InputModes, family string) string {
	isMultimodal := family == "multimodal"
	isChat := family == "chat"

	if im.Images && !isMultimodal {
		return "images input_mode requires a multimodal model family"
	}

	if im.Audio && !isMultimodal && family != "audio" {
		return "audio input_mode requires an audio or multimodal model family"
	}

	if im.Video && !isMultimodal && family != "video" {
		return "video input_mode requires a video or multimodal model family"
	}

	if isChat && (im.Images || im.Audio || im.Video) {
		return "chat model family forbids non-text input modes"
	}

	return ""
}

func decodeTooling(v value.Value) Tooling {
	t := Tooling{}

	if b, ok := v.Field("tools_supported"); ok {
		t.ToolsSupported, _ = b.AsBool()
	}

	if b, ok := v.Field("parallel_tool_calls_default"); ok {
		t.ParallelToolCallsDefault, _ = b.AsBool()
	}

	if mv, ok := v.Field("permitted_tool_choice_modes"); ok && mv.Kind() == value.KindArray {
		arr, _ := mv.AsArray()
		for _, item := range arr {
			if s, ok := item.AsString(); ok {
				t.PermittedToolChoiceModes = append(t.PermittedToolChoiceModes, ToolChoiceMode(s))
			}
		}
	}

	if tv, ok := v.Field("permitted_tool_types"); ok && tv.Kind() == value.KindArray {
		arr, _ := tv.AsArray()
		for _, item := range arr {
			if s, ok := item.AsString(); ok {
				t.PermittedToolTypes = append(t.PermittedToolTypes, s)
			}
		}
	}

	return t
}

func decodeConstraints(v value.Value) Constraints {
	c := Constraints{}

	if s, ok := stringField(v, "system_prompt_location"); ok {
		c.SystemPromptLocation = SystemPromptLocation(s)
	}

	if b, ok := v.Field("forbid_unknown_top_level_fields"); ok {
		c.ForbidUnknownTopLevelFields, _ = b.AsBool()
	}

	if mev, ok := v.Field("mutually_exclusive"); ok && mev.Kind() == value.KindArray {
		groups, _ := mev.AsArray()
		for _, g := range groups {
			group := MutuallyExclusiveGroup{}

			if pv, ok := g.Field("paths"); ok && pv.Kind() == value.KindArray {
				arr, _ := pv.AsArray()
				for _, item := range arr {
					if s, ok := item.AsString(); ok {
						group.Paths = append(group.Paths, s)
					}
				}
			}

			group.Strategy, _ = stringField(g, "strategy")

			c.MutuallyExclusive = append(c.MutuallyExclusive, group)
		}
	}

	if rpv, ok := v.Field("resolution_preferences"); ok && rpv.Kind() == value.KindArray {
		arr, _ := rpv.AsArray()
		for _, item := range arr {
			if s, ok := item.AsString(); ok {
				c.ResolutionPreferences = append(c.ResolutionPreferences, s)
			}
		}
	}

	if lv, ok := v.Field("limits"); ok {
		if n := numberField(lv, "max_tool_schema_bytes"); n != nil {
			c.MaxToolSchemaBytes = int(*n)
		}

		if n := numberField(lv, "max_system_prompt_bytes"); n != nil {
			c.MaxSystemPromptBytes = int(*n)
		}
	}

	return c
}

func decodeMappings(v value.Value, base string) (Mappings, []bridgeerr.Violation) {
	var violations []bridgeerr.Violation

	m := Mappings{FlagMappings: map[string]string{}, TransformHints: map[string]string{}}

	if pv, ok := v.Field("paths"); ok && pv.Kind() == value.KindArray {
		arr, _ := pv.AsArray()
		for i, item := range arr {
			pm := PathMapping{}
			pm.UniformPath, _ = stringField(item, "uniform_path")
			pm.ProviderPath, _ = stringField(item, "provider_path")
			pm.Hint, _ = stringField(item, "hint")

			if pm.UniformPath != "" {
				if _, err := jsonpath.Parse(pm.UniformPath); err != nil {
					violations = append(violations, bridgeerr.Violation{
						Path: indexPath(base+"mappings.paths", i, "uniform_path"), Message: "not a valid JSONPath: " + err.Error(), Rule: "valid_jsonpath",
					})
				}
			}

			m.Paths = append(m.Paths, pm)
		}
	}

	if fv, ok := v.Field("flag_mappings"); ok && fv.Kind() == value.KindObject {
		for _, k := range fv.Keys() {
			if s, ok := stringField(fv, k); ok {
				m.FlagMappings[k] = s
			}
		}
	}

	if thv, ok := v.Field("transformation_hints"); ok && thv.Kind() == value.KindObject {
		for _, k := range thv.Keys() {
			if s, ok := stringField(thv, k); ok {
				m.TransformHints[k] = s
			}
		}
	}

	return m, violations
}

func decodeResponseNormalization(v value.Value, base string) (ResponseNormalization, []bridgeerr.Violation) {
	var violations []bridgeerr.Violation

	rn := ResponseNormalization{}

	if sv, ok := v.Field("sync"); ok {
		rn.Sync.ContentPath, _ = stringField(sv, "content_path")
		rn.Sync.FinishReasonPath, _ = stringField(sv, "finish_reason_path")

		if fm, ok := sv.Field("finish_reason_map"); ok && fm.Kind() == value.KindObject {
			rn.Sync.FinishReasonMap = map[string]string{}
			for _, k := range fm.Keys() {
				if s, ok := stringField(fm, k); ok {
					rn.Sync.FinishReasonMap[k] = s
				}
			}
		}

		for _, p := range []struct{ name, path string }{
			{"content_path", rn.Sync.ContentPath},
			{"finish_reason_path", rn.Sync.FinishReasonPath},
		} {
			if p.path == "" {
				continue
			}

			if _, err := jsonpath.Parse(p.path); err != nil {
				violations = append(violations, bridgeerr.Violation{
					Path: base + "response_normalization.sync." + p.name, Message: "not a valid JSONPath: " + err.Error(), Rule: "valid_jsonpath",
				})
			}
		}
	}

	if stv, ok := v.Field("stream"); ok {
		s := &ResponseNormalizationStream{}
		s.Protocol, _ = stringField(stv, "protocol")
		s.EventSelector, _ = stringField(stv, "event_selector")
		rn.Stream = s
	}

	return rn, violations
}
