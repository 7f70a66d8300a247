// Copyright Ondevice AI Authors
// SPDX-License-Identifier: Apache-2.0

package fakeondevice

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/require"

	"github.com/ondevice-ai/smokectl/internal/apischema/ondevice"
)

func startServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	s, err := NewServer(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newClient(s *Server) openai.Client {
	return openai.NewClient(
		option.WithBaseURL(s.URL()+"/v1/"),
		option.WithAPIKey("dummy-key"),
	)
}

func TestServer_Health(t *testing.T) {
	s := startServer(t)

	resp, err := http.Get(s.URL() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health ondevice.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	require.Equal(t, "healthy", health.Status)
}

func TestServer_Status(t *testing.T) {
	s := startServer(t, WithStatus(ondevice.ServerStatus{
		ModelAvailable: false,
		Reason:         "model not downloaded",
	}))

	resp, err := http.Get(s.URL() + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status ondevice.ServerStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	require.False(t, status.ModelAvailable)
	require.Equal(t, "model not downloaded", status.Reason)
}

func TestServer_Models(t *testing.T) {
	s := startServer(t)

	client := newClient(s)
	models, err := client.Models.List(t.Context())
	require.NoError(t, err)
	require.Len(t, models.Data, 1)
	require.Equal(t, "apple-on-device", models.Data[0].ID)
}

func TestServer_ModelsStatusCode(t *testing.T) {
	s := startServer(t, WithModelsStatusCode(http.StatusInternalServerError))

	client := newClient(s)
	_, err := client.Models.List(t.Context())
	require.Error(t, err)
}

func TestServer_ChatCompletion(t *testing.T) {
	s := startServer(t, WithReply("This is a test."))

	client := newClient(s)
	resp, err := client.Chat.Completions.New(t.Context(), openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Say this is a test"),
		},
		Model:     "apple-on-device",
		MaxTokens: openai.Int(200),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.ID, "chatcmpl-"))
	require.Equal(t, "apple-on-device", resp.Model)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, "This is a test.", resp.Choices[0].Message.Content)
}

func TestServer_ChatCompletionEcho(t *testing.T) {
	s := startServer(t, WithEcho())

	const prompt = "你好！请用中文解释一下什么是苹果智能。"
	client := newClient(s)
	resp, err := client.Chat.Completions.New(t.Context(), openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("first turn"),
			openai.AssistantMessage("noted"),
			openai.UserMessage(prompt),
		},
		Model: "apple-on-device",
	})
	require.NoError(t, err)
	require.Equal(t, prompt, resp.Choices[0].Message.Content)
}

func TestServer_StreamingChatCompletion(t *testing.T) {
	const reply = "On-device AI helped the rescue team find the hikers."
	s := startServer(t, WithReply(reply), WithStreamChunkSize(5))

	client := newClient(s)
	stream := client.Chat.Completions.NewStreaming(t.Context(), openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Tell me a short story about AI helping humans."),
		},
		Model:     "apple-on-device",
		MaxTokens: openai.Int(150),
	})
	defer func() {
		_ = stream.Close()
	}()

	acc := openai.ChatCompletionAccumulator{}
	var collected strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		require.True(t, acc.AddChunk(chunk))
		if len(chunk.Choices) == 0 {
			continue
		}
		collected.WriteString(chunk.Choices[0].Delta.Content)
	}
	require.NoError(t, stream.Err())

	// No fragment dropped or duplicated.
	require.Equal(t, reply, collected.String())
	require.Len(t, acc.Choices, 1)
	require.Equal(t, reply, acc.Choices[0].Message.Content)
}

func TestChunkRunes(t *testing.T) {
	require.Equal(t, []string{"你好世", "界"}, chunkRunes("你好世界", 3))
	require.Equal(t, []string{"abcd", "efgh", "i"}, chunkRunes("abcdefghi", 4))
	require.Empty(t, chunkRunes("", 4))
}
