// Copyright Ondevice AI Authors
// SPDX-License-Identifier: Apache-2.0

// Package smoke implements the smoke-test runner for an on-device OpenAI
// compatible server. A probe is one self-contained check against one server
// endpoint; probes never let an error escape, they print a diagnostic and
// report the outcome as a bool.
package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ondevice-ai/smokectl/internal/apischema/ondevice"
)

const (
	// DefaultBaseURL is where the on-device server listens by default.
	DefaultBaseURL = "http://127.0.0.1:11535"
	// ModelID is the model identifier the server advertises.
	ModelID = "apple-on-device"
)

const separator = "============================================================"

// Runner drives the ordered probe sequence against one server. Probes share
// no state beyond the configured target: each call is independent.
type Runner struct {
	baseURL    string
	out        io.Writer
	logger     *slog.Logger
	httpClient *http.Client
	client     openai.Client
}

// NewRunner creates a Runner targeting baseURL, writing human readable
// results to out.
func NewRunner(baseURL string, out io.Writer, logger *slog.Logger) *Runner {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &Runner{
		baseURL:    baseURL,
		out:        out,
		logger:     logger,
		httpClient: http.DefaultClient,
		// The server accepts any API key, but the SDK insists on one.
		client: openai.NewClient(
			option.WithBaseURL(baseURL+"/v1/"),
			option.WithAPIKey("dummy-key"),
		),
	}
}

// Run executes all probes in order, gating the chat probes on the status
// probe's availability flag. Failures are printed, never returned: the run
// always completes.
func (r *Runner) Run(ctx context.Context) {
	r.printf("🚀 Starting Apple On-Device OpenAI Compatible Server Tests\n")
	r.printf("%s\n", separator)

	if !r.HealthCheck(ctx) {
		r.printf("\n❌ Server unreachable, please ensure the server is running\n")
		return
	}

	modelAvailable := r.Status(ctx)

	r.ListModels(ctx)

	if !modelAvailable {
		r.printf("\n⚠️  Model unavailable, skipping chat tests\n")
		r.printf("Please ensure:\n")
		r.printf("1. Device supports Apple Intelligence\n")
		r.printf("2. Apple Intelligence is enabled in Settings\n")
		r.printf("3. Model download is complete\n")
		return
	}

	r.printf("\n%s\n", separator)
	r.printf("🤖 Model available, starting chat tests\n")
	r.printf("%s\n", separator)

	r.ChatCompletion(ctx)
	r.ChineseConversation(ctx)

	r.printf("\n%s\n", separator)
	r.printf("🌊 Testing streaming functionality\n")
	r.printf("%s\n", separator)

	r.StreamingChatCompletion(ctx)

	r.printf("\n%s\n", separator)
	r.printf("✅ All tests completed!\n")
	r.printf("\n💡 You can now use any OpenAI-compatible client to connect to:\n")
	r.printf("   Base URL: %s/v1\n", r.baseURL)
	r.printf("   API Key: any value (no real API key needed)\n")
	r.printf("   Model: %s\n", ModelID)
}

// HealthCheck probes "GET /health". A failure here is fatal to the run: the
// driver skips every remaining probe.
func (r *Runner) HealthCheck(ctx context.Context) bool {
	r.printf("🔍 Testing health check...\n")
	resp, err := r.get(ctx, "/health")
	if err != nil {
		r.printf("❌ Connection failed: %v\n", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		r.printf("❌ Health check failed: %d\n", resp.StatusCode)
		return false
	}
	r.printf("✅ Health check passed\n")
	return true
}

// Status probes "GET /status" and returns the availability flag that gates
// the chat probes.
func (r *Runner) Status(ctx context.Context) bool {
	r.printf("\n🔍 Testing server status...\n")
	resp, err := r.get(ctx, "/status")
	if err != nil {
		r.printf("❌ Status check error: %v\n", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		r.printf("❌ Status check failed: %d\n", resp.StatusCode)
		return false
	}
	var status ondevice.ServerStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		r.printf("❌ Status check error: %v\n", err)
		return false
	}
	r.logger.Debug("decoded server status",
		"model_available", status.ModelAvailable,
		"reason", status.Reason,
		"supported_languages", status.SupportedLanguages)
	reason := status.Reason
	if reason == "" {
		reason = "N/A"
	}
	r.printf("✅ Status check passed\n")
	r.printf("   Model available: %t\n", status.ModelAvailable)
	r.printf("   Reason: %s\n", reason)
	r.printf("   Supported languages count: %d\n", len(status.SupportedLanguages))
	return status.ModelAvailable
}

// ListModels probes the OpenAI model listing endpoint and prints every
// advertised model identifier. Failures are reported but non-fatal.
func (r *Runner) ListModels(ctx context.Context) bool {
	r.printf("\n🔍 Testing models list (OpenAI SDK)...\n")
	models, err := r.client.Models.List(ctx)
	if err != nil {
		r.printf("❌ Models list retrieval error: %v\n", err)
		return false
	}
	r.printf("✅ Models list retrieved successfully\n")
	r.printf("   Available models count: %d\n", len(models.Data))
	for _, model := range models.Data {
		r.printf("   - %s\n", model.ID)
	}
	return true
}

// ChatCompletion probes a multi-turn conversation with alternating user and
// assistant turns and a trailing user turn.
func (r *Runner) ChatCompletion(ctx context.Context) bool {
	r.printf("\n🔍 Testing multi-turn chat completion (OpenAI SDK)...\n")
	r.logger.Debug("sending multi-turn chat completion request", "model", ModelID)
	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("What are the benefits of on-device AI?"),
			openai.AssistantMessage("On-device AI offers several key benefits including improved privacy, faster response times, reduced reliance on internet connectivity, and better data security since processing happens locally on your device."),
			openai.UserMessage("Can you elaborate on the privacy benefits?"),
		},
		Model:     ModelID,
		MaxTokens: openai.Int(200),
	})
	if err != nil {
		r.printf("❌ Multi-turn OpenAI SDK call failed: %v\n", err)
		return false
	}
	r.printf("✅ Multi-turn OpenAI SDK call successful\n")
	r.printf("   Response ID: %s\n", resp.ID)
	r.printf("   Model: %s\n", resp.Model)
	r.printf("   AI Response: %s\n", firstContent(resp))
	return true
}

// ChineseConversation probes a single-turn Chinese prompt, verifying the
// server round-trips non-ASCII content.
func (r *Runner) ChineseConversation(ctx context.Context) bool {
	r.printf("\n🔍 Testing Chinese conversation (OpenAI SDK)...\n")
	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("你好！请用中文解释一下什么是苹果智能。"),
		},
		Model:     ModelID,
		MaxTokens: openai.Int(200),
	})
	if err != nil {
		r.printf("❌ Chinese conversation error: %v\n", err)
		return false
	}
	r.printf("✅ Chinese conversation successful\n")
	r.printf("   AI Response: %s\n", firstContent(resp))
	return true
}

// StreamingChatCompletion opens a streaming completion and reads delta
// content fragments as they arrive. The concatenation of the printed
// fragments is the full response reported at the end.
func (r *Runner) StreamingChatCompletion(ctx context.Context) bool {
	r.printf("\n🔍 Testing streaming chat completion (OpenAI SDK)...\n")
	stream := r.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Tell me a short story about AI helping humans."),
		},
		Model:     ModelID,
		MaxTokens: openai.Int(150),
	})
	defer func() {
		_ = stream.Close()
	}()

	r.printf("✅ Streaming chat completion started\n")
	var collected strings.Builder
	chunkCount := 0
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		content := chunk.Choices[0].Delta.Content
		collected.WriteString(content)
		chunkCount++
		r.printf("   Chunk %d: '%s'\n", chunkCount, content)
	}
	if err := stream.Err(); err != nil {
		r.printf("❌ Streaming chat completion failed: %v\n", err)
		return false
	}
	r.printf("✅ Streaming completed with %d chunks\n", chunkCount)
	r.printf("   Full response: %s\n", collected.String())
	return true
}

func (r *Runner) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return r.httpClient.Do(req)
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func firstContent(resp *openai.ChatCompletion) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}
