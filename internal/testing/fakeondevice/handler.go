// Copyright Ondevice AI Authors
// SPDX-License-Identifier: Apache-2.0

package fakeondevice

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ondevice-ai/smokectl/internal/apischema/ondevice"
)

const defaultReply = "On-device models keep your data on the machine and answer without a network round trip."

type handler struct {
	status     ondevice.ServerStatus
	reply      string
	echo       bool
	models     []string
	chunkSize  int
	modelsCode int
}

// ServeHTTP routes the fake endpoints.
func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/health":
		writeJSON(w, http.StatusOK, ondevice.HealthResponse{Status: "healthy"})
	case r.Method == http.MethodGet && r.URL.Path == "/status":
		writeJSON(w, http.StatusOK, h.status)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/models":
		h.serveModels(w)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/chat/completions":
		h.serveChatCompletion(w, r)
	default:
		http.Error(w, fmt.Sprintf("no fake handler for %s %s", r.Method, r.URL.Path), http.StatusNotFound)
	}
}

func (h *handler) serveModels(w http.ResponseWriter) {
	if h.modelsCode != 0 {
		http.Error(w, "model listing unavailable", h.modelsCode)
		return
	}
	list := ondevice.ModelList{Object: "list"}
	for _, id := range h.models {
		list.Data = append(list.Data, ondevice.Model{
			ID:      id,
			Object:  "model",
			OwnedBy: "ondevice-ai",
			Created: time.Now().Unix(),
		})
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) serveChatCompletion(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read request body: %v", err), http.StatusInternalServerError)
		return
	}

	model := gjson.GetBytes(body, "model").String()
	reply := h.reply
	if h.echo {
		// Echo the trailing user turn so multi-byte content round-trips
		// through the wire untouched.
		users := gjson.GetBytes(body, `messages.#(role=="user")#.content`).Array()
		if len(users) > 0 {
			reply = users[len(users)-1].String()
		}
	}

	id := fmt.Sprintf("chatcmpl-%d", time.Now().UnixNano())
	if gjson.GetBytes(body, "stream").Bool() {
		h.streamReply(w, id, model, reply)
		return
	}

	writeJSON(w, http.StatusOK, ondevice.ChatCompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []ondevice.ChatCompletionChoice{{
			Message:      ondevice.ChatMessage{Role: "assistant", Content: reply},
			FinishReason: "stop",
		}},
		Usage: ondevice.Usage{
			PromptTokens:     len(body) / 4,
			CompletionTokens: len(reply) / 4,
			TotalTokens:      len(body)/4 + len(reply)/4,
		},
	})
}

func (h *handler) streamReply(w http.ResponseWriter, id, model, reply string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher, ok := w.(http.Flusher)
	if !ok {
		panic("expected http.ResponseWriter to be an http.Flusher")
	}

	created := time.Now().Unix()
	first := true
	for _, content := range chunkRunes(reply, h.chunkSize) {
		delta := ondevice.ChatDelta{Content: content}
		if first {
			delta.Role = "assistant"
			first = false
		}
		writeEvent(w, ondevice.ChatCompletionChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   model,
			Choices: []ondevice.ChunkChoice{{Delta: delta}},
		})
		flusher.Flush()
	}

	stop := "stop"
	writeEvent(w, ondevice.ChatCompletionChunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []ondevice.ChunkChoice{{FinishReason: &stop}},
	})
	flusher.Flush()

	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeEvent(w io.Writer, chunk ondevice.ChatCompletionChunk) {
	b, _ := json.Marshal(chunk)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", b)
}

// chunkRunes splits s into rune-aligned pieces of at most n runes so that
// multi-byte content is never cut mid-character.
func chunkRunes(s string, n int) []string {
	if n <= 0 {
		n = 4
	}
	runes := []rune(s)
	var out []string
	for len(runes) > 0 {
		m := n
		if m > len(runes) {
			m = len(runes)
		}
		out = append(out, string(runes[:m]))
		runes = runes[m:]
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
