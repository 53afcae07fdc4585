package media

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

const negativePromptPrefix = "Negative prompt:"

// settingPattern matches one "Key: value" pair of the A1111 settings line.
// Values may be double-quoted when they contain commas.
var settingPattern = regexp.MustCompile(`\s*(\w[\w \-/]+):\s*("(?:\\.|[^\\"])+"|[^,]*)(?:,|$)`)

// sizePattern matches the WxH form used by the Size setting.
var sizePattern = regexp.MustCompile(`^\d+x\d+$`)

// parseGeneration builds a Generation from the text chunks of an image.
// It returns nil when no text was embedded.
func parseGeneration(texts map[string]string) *Generation {
	if len(texts) == 0 {
		return nil
	}

	gen := &Generation{Source: "text", Raw: texts}

	if params, ok := texts["parameters"]; ok && strings.TrimSpace(params) != "" {
		parseParameters(gen, params)
		gen.Source = "a1111"
	}

	prompt, hasPrompt := texts["prompt"]
	workflow, hasWorkflow := texts["workflow"]
	if (hasPrompt && json.Valid([]byte(prompt))) || (hasWorkflow && json.Valid([]byte(workflow))) {
		gen.ComfyPrompt = prompt
		gen.Workflow = workflow
		if gen.Source == "text" {
			gen.Source = "comfyui"
		}
	}

	return gen
}

// parseParameters fills gen from A1111/Forge "parameters" text: prompt lines,
// an optional "Negative prompt:" block, then a final settings line that
// starts with "Steps:".
func parseParameters(gen *Generation, text string) {
	lines := strings.Split(strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n"), "\n")

	var settings string
	if last := strings.TrimSpace(lines[len(lines)-1]); isSettingsLine(last) {
		settings = last
		lines = lines[:len(lines)-1]
	}

	var prompt, negative []string
	inNegative := false
	for _, line := range lines {
		if !inNegative && strings.HasPrefix(line, negativePromptPrefix) {
			inNegative = true
			line = strings.TrimSpace(strings.TrimPrefix(line, negativePromptPrefix))
		}
		if inNegative {
			negative = append(negative, line)
		} else {
			prompt = append(prompt, line)
		}
	}
	gen.Prompt = strings.TrimSpace(strings.Join(prompt, "\n"))
	gen.NegativePrompt = strings.TrimSpace(strings.Join(negative, "\n"))

	if settings == "" {
		return
	}
	gen.Settings = parseSettings(settings)

	for key, value := range gen.Settings {
		switch key {
		case "Steps":
			if n, err := strconv.Atoi(value); err == nil {
				gen.Steps = n
			}
		case "Sampler":
			gen.Sampler = value
		case "CFG scale":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				gen.CFGScale = f
			}
		case "Seed":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				gen.Seed = n
			}
		case "Size":
			if sizePattern.MatchString(value) {
				gen.Size = value
			}
		case "Model":
			gen.Model = value
		case "Model hash":
			gen.ModelHash = value
		}
	}
}

func isSettingsLine(line string) bool {
	return strings.HasPrefix(line, "Steps:")
}

func parseSettings(line string) map[string]string {
	settings := make(map[string]string)
	for _, m := range settingPattern.FindAllStringSubmatch(line, -1) {
		key := strings.TrimSpace(m[1])
		value := strings.TrimSpace(m[2])
		if unquoted, err := strconv.Unquote(value); err == nil && strings.HasPrefix(value, `"`) {
			value = unquoted
		}
		settings[key] = value
	}
	return settings
}
