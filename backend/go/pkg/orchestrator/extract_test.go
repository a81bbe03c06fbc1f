package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNormalizer() *Normalizer {
	n := DefaultNormalizer()
	n.NewID = func() string { return "generated-1" }
	return n
}

func TestNormalize_JSONAliases(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"top-level session_id", `{"session_id":"a1","id":"ignored"}`, "a1"},
		{"camelCase", `{"sessionId":"a2"}`, "a2"},
		{"session_token before token", `{"token":"t","session_token":"a3"}`, "a3"},
		{"sessionToken", `{"sessionToken":"a4"}`, "a4"},
		{"token", `{"token":"a5"}`, "a5"},
		{"numeric id", `{"id":42}`, "42"},
		{"nested session_token", `{"session_info":{"session_token":"abc123"}}`, "abc123"},
		{"nested order", `{"session_info":{"id":"later","sessionId":"first"}}`, "first"},
		{"top level wins over nested", `{"token":"top","session_info":{"session_id":"nested"}}`, "top"},
		{"empty string skipped", `{"session_id":"","sessionId":"a6"}`, "a6"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := fixedNormalizer().normalize([]byte(tc.body), true)
			require.NoError(t, got.parseErr)
			assert.Equal(t, tc.want, got.sessionID)
			assert.False(t, got.generated)
			assert.NotNil(t, got.fields)
		})
	}
}

func TestNormalize_TextPatterns(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bare session_id", `upload ok ... session_id: 'xyz789' ...`, "xyz789"},
		{"quoted session token", `{'session_token': 'q-1', broken`, "q-1"},
		{"quoted token", `result => {"token": "tok-7"`, "tok-7"},
		{"quoted id", `<pre>{"id": "doc-3"</pre>`, "doc-3"},
		{"dashed key", `Session-Token: abc.def-9`, "abc.def-9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := fixedNormalizer().normalize([]byte(tc.body), true)
			assert.Error(t, got.parseErr)
			assert.Equal(t, tc.want, got.sessionID)
			assert.False(t, got.generated)
			assert.Nil(t, got.fields)
		})
	}
}

func TestNormalize_GeneratedFallback(t *testing.T) {
	got := fixedNormalizer().normalize([]byte("Internal processing finished."), true)
	assert.Equal(t, "generated-1", got.sessionID)
	assert.True(t, got.generated)
	assert.NotEmpty(t, got.warning)

	got = fixedNormalizer().normalize([]byte(`{"status":"indexed"}`), true)
	assert.Equal(t, "generated-1", got.sessionID)
	assert.True(t, got.generated)
	assert.Equal(t, "indexed", got.fields["status"])

	got = fixedNormalizer().normalize([]byte(`{"status":"indexed"}`), false)
	assert.Empty(t, got.sessionID)
	assert.False(t, got.generated)
}

func TestExtractors_AreIndependent(t *testing.T) {
	e := PathExtractor{Path: "session_info.token"}
	id, ok := e.Extract([]byte(`{"session_info":{"token":"n-1"}}`))
	assert.True(t, ok)
	assert.Equal(t, "n-1", id)

	_, ok = e.Extract([]byte(`{"session_info":{"token":{"value":"x"}}}`))
	assert.False(t, ok, "objects are not identifiers")

	for _, ex := range DefaultTextExtractors() {
		_, ok := ex.Extract([]byte("nothing to see here"))
		assert.False(t, ok, ex.Name())
	}
	assert.Len(t, DefaultJSONExtractors(), 2*len(SessionAliases))
}
