// Copyright Ondevice AI Authors
// SPDX-License-Identifier: Apache-2.0

// Package fakeondevice provides an in-process fake of the on-device OpenAI
// compatible server for testing. It serves the bespoke /health and /status
// endpoints plus enough of the /v1 surface (model listing, chat completions,
// streaming) for the smoke probes to run without a real model backend.
package fakeondevice

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ondevice-ai/smokectl/internal/apischema/ondevice"
)

// Server is a fake on-device OpenAI compatible server.
type Server struct {
	server   *http.Server
	listener net.Listener
}

// Option configures a Server.
type Option func(*handler)

// WithStatus overrides the payload served at "GET /status".
func WithStatus(s ondevice.ServerStatus) Option {
	return func(h *handler) { h.status = s }
}

// WithReply sets the canned assistant reply returned by chat completions.
func WithReply(reply string) Option {
	return func(h *handler) { h.reply = reply }
}

// WithEcho makes chat completions echo the trailing user message back
// instead of the canned reply.
func WithEcho() Option {
	return func(h *handler) { h.echo = true }
}

// WithStreamChunkSize sets how many runes each streamed delta carries.
func WithStreamChunkSize(n int) Option {
	return func(h *handler) { h.chunkSize = n }
}

// WithModelsStatusCode forces "GET /v1/models" to fail with the given
// status code while the rest of the surface keeps working.
func WithModelsStatusCode(code int) Option {
	return func(h *handler) { h.modelsCode = code }
}

// NewServer starts a fake server on a random localhost port.
func NewServer(opts ...Option) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	h := &handler{
		status: ondevice.ServerStatus{
			ModelAvailable:     true,
			Reason:             "ok",
			SupportedLanguages: []string{"en", "zh"},
		},
		reply:     defaultReply,
		models:    []string{"apple-on-device"},
		chunkSize: 4,
	}
	for _, opt := range opts {
		opt(h)
	}

	s := &Server{listener: listener}
	s.server = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second, // G112: Prevent Slowloris attacks.
	}
	go func() {
		_ = s.server.Serve(listener)
	}()
	return s, nil
}

// URL returns the base URL of the server.
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s", s.listener.Addr().String())
}

// Close shuts down the server.
func (s *Server) Close() error {
	return s.server.Close()
}
