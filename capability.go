package promptbridge

import (
	"github.com/kesh-io/promptbridge/lossiness"
	"github.com/kesh-io/promptbridge/specdata"
	"github.com/kesh-io/promptbridge/strictness"
)

// checkCapabilities runs the model-capability gates spec.md §4.6 calls
// "unsupported feature at path P": tool support, the requested tool_choice
// mode, and multimodal input. Each triggered gate records one Unsupported
// (or, depending on mode, Drop) item; EvaluateProceeding is what actually
// aborts translation, not this function.
func checkCapabilities(prompt *specdata.PromptSpec, model *specdata.ModelSpec, mode strictness.Mode, tracker *lossiness.Tracker) {
	if len(prompt.Tools) > 0 && !model.Tooling.ToolsSupported {
		recordGate(tracker, "$.tools", mode)
	}

	if prompt.ToolChoice != nil && !toolChoicePermitted(model.Tooling.PermittedToolChoiceModes, prompt.ToolChoice.Mode) {
		recordGate(tracker, "$.tool_choice", mode)
	}

	if prompt.Media == nil {
		return
	}

	if len(prompt.Media.InputImages) > 0 && !model.InputModes.Images {
		recordGate(tracker, "$.media.input_images", mode)
	}

	if prompt.Media.InputAudio != "" && !model.InputModes.Audio {
		recordGate(tracker, "$.media.input_audio", mode)
	}

	if prompt.Media.InputVideo != "" && !model.InputModes.Video {
		recordGate(tracker, "$.media.input_video", mode)
	}
}

func toolChoicePermitted(permitted []specdata.ToolChoiceMode, requested specdata.ToolChoiceMode) bool {
	for _, p := range permitted {
		if p == requested {
			return true
		}
	}

	return false
}

func recordGate(tracker *lossiness.Tracker, path string, mode strictness.Mode) {
	decision := strictness.UnsupportedFeature(path, mode, nil)
	if decision.Item == nil {
		return
	}

	tracker.Add(lossiness.Item{
		Code:     decision.Item.Code,
		Path:     path,
		Message:  decision.Item.Message,
		Severity: decision.Item.Severity,
	})
}
