// Copyright 2025 Onward Platforms
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

// DefaultTemperature is applied when a model block omits temperature.
const DefaultTemperature = 0.7

// ModelConfig holds the model provider selection and sampling parameters for
// an agent. The model block is open: providers may accept extra keys, so
// unknown fields here are not rejected.
type ModelConfig struct {
	// Provider selects the model backend (e.g. openai, azure, ollama).
	Provider string `yaml:"provider" json:"provider" jsonschema:"required"`

	// Model is the provider-specific model identifier (e.g. gpt-4o).
	Model string `yaml:"model" json:"model" jsonschema:"required"`

	// Temperature controls sampling randomness. Range 0..1.
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty" jsonschema:"minimum=0,maximum=1"`

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`

	// TopP is the nucleus sampling cutoff. Range 0..1 when present.
	TopP *float64 `yaml:"top_p,omitempty" json:"top_p,omitempty" jsonschema:"minimum=0,maximum=1"`

	// FrequencyPenalty and PresencePenalty follow the provider's semantics.
	FrequencyPenalty *float64 `yaml:"frequency_penalty,omitempty" json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `yaml:"presence_penalty,omitempty" json:"presence_penalty,omitempty"`
}

// SetDefaults applies defaults to unset fields.
func (m *ModelConfig) SetDefaults() {
	if m.Temperature == nil {
		m.Temperature = Float64Ptr(DefaultTemperature)
	}
}

// validate appends field-level violations to errs. base is the JSON-pointer
// path of the model block.
func (m *ModelConfig) validate(base string, errs *ValidationErrors) {
	if m.Provider == "" {
		errs.add(base+"/provider", "provider is required")
	}
	if m.Model == "" {
		errs.add(base+"/model", "model is required")
	}
	if m.Temperature != nil && (*m.Temperature < 0 || *m.Temperature > 1) {
		errs.add(base+"/temperature", "temperature must be between 0 and 1, got %g", *m.Temperature)
	}
	if m.TopP != nil && (*m.TopP < 0 || *m.TopP > 1) {
		errs.add(base+"/top_p", "top_p must be between 0 and 1, got %g", *m.TopP)
	}
	if m.MaxTokens < 0 {
		errs.add(base+"/max_tokens", "max_tokens must not be negative, got %d", m.MaxTokens)
	}
}

// Float64Ptr returns a pointer to a float64 value.
func Float64Ptr(f float64) *float64 { return &f }

// BoolPtr returns a pointer to a bool value.
func BoolPtr(b bool) *bool { return &b }

// IntPtr returns a pointer to an int value.
func IntPtr(i int) *int { return &i }
