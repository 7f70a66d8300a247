// Copyright Ondevice AI Authors
// SPDX-License-Identifier: Apache-2.0

// Package ondevice defines the JSON schema of the on-device OpenAI compatible
// server surface the smoke probes talk to: the bespoke /health and /status
// endpoints, plus the OpenAI-shaped response bodies served by the fake server
// in tests.
package ondevice

// HealthResponse is the response of "GET /health".
type HealthResponse struct {
	Status string `json:"status"`
}

// ServerStatus is the response of "GET /status".
type ServerStatus struct {
	// ModelAvailable reports whether the on-device model is ready to serve
	// chat completion requests.
	ModelAvailable bool `json:"model_available"`
	// Reason is a human readable explanation of ModelAvailable.
	Reason string `json:"reason"`
	// SupportedLanguages lists the language tags the model supports.
	SupportedLanguages []string `json:"supported_languages"`
}

// Model is a single entry in the response of "GET /v1/models".
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
	Created int64  `json:"created"`
}

// ModelList is the response of "GET /v1/models".
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// ChatMessage is a single role/content pair in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionChoice is a single choice of a non-streaming completion.
type ChatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Usage is the token accounting attached to a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the non-streaming response of
// "POST /v1/chat/completions".
type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   Usage                  `json:"usage"`
}

// ChatDelta is the incremental content fragment of one streamed chunk.
type ChatDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// ChunkChoice is a single choice of a streamed chunk.
type ChunkChoice struct {
	Index        int       `json:"index"`
	Delta        ChatDelta `json:"delta"`
	FinishReason *string   `json:"finish_reason"`
}

// ChatCompletionChunk is one event of a streaming response of
// "POST /v1/chat/completions". The stream is terminated by a sentinel
// "[DONE]" data line, not by a chunk.
type ChatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}
