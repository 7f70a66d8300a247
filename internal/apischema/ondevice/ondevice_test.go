// Copyright Ondevice AI Authors
// SPDX-License-Identifier: Apache-2.0

package ondevice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerStatusUnmarshal(t *testing.T) {
	const raw = `{"model_available": true, "reason": "ok", "supported_languages": ["en","zh"]}`

	var status ServerStatus
	require.NoError(t, json.Unmarshal([]byte(raw), &status))
	require.True(t, status.ModelAvailable)
	require.Equal(t, "ok", status.Reason)
	require.Len(t, status.SupportedLanguages, 2)
}

func TestModelListMarshal(t *testing.T) {
	var (
		model = Model{
			ID:      "apple-on-device",
			Object:  "model",
			OwnedBy: "ondevice-ai",
			Created: 1735689600,
		}
		list = ModelList{Object: "list", Data: []Model{model}}
		raw  = `{"object":"list","data":[{"id":"apple-on-device","object":"model","owned_by":"ondevice-ai","created":1735689600}]}`
	)

	b, err := json.Marshal(list)
	require.NoError(t, err)
	require.JSONEq(t, raw, string(b))

	var out ModelList
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	require.Equal(t, list, out)
}
