package jsonextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{name: "pure_array", input: `[{"id":0}]`, want: `[{"id":0}]`, found: true},
		{name: "pure_object", input: `{"key":"value"}`, want: `{"key":"value"}`, found: true},
		{name: "array_with_preamble", input: `Here is the result: [{"a":1}]`, want: `[{"a":1}]`, found: true},
		{name: "object_with_trailer", input: `Here: {"key":"value"} done.`, want: `{"key":"value"}`, found: true},
		{name: "array_before_object", input: `Text [{"a":1}] and {"b":2}`, want: `[{"a":1}]`, found: true},
		{name: "brackets_inside_strings", input: `{"arr":"[1,2,3]","k":"}"}`, want: `{"arr":"[1,2,3]","k":"}"}`, found: true},
		{name: "json_fence", input: "```json\n[{\"id\":1}]\n```", want: `[{"id":1}]`, found: true},
		{name: "bare_fence_with_prose", input: "Sure!\n```\n{\"a\":1}\n```\nThanks", want: `{"a":1}`, found: true},
		{name: "garbage_before_valid_array", input: `cater FIRE [oops] [{"text":"x"}]`, want: `[{"text":"x"}]`, found: true},
		{name: "bracketed_id_in_prose", input: "Article [0] is the most relevant.\n[{\"id\":0},{\"id\":1}]", want: `[{"id":0},{"id":1}]`, found: true},
		{name: "only_bare_array", input: `ids: [1, 2]`, want: `[1, 2]`, found: true},
		{name: "nested_arrays", input: `[{"items":[1,2]},{"items":[3]}]`, want: `[{"items":[1,2]},{"items":[3]}]`, found: true},
		{name: "regex_fallback_on_unbalanced", input: `text { not json } more`, want: `{ not json }`, found: true},
		{name: "no_json", input: "just some text", found: false},
		{name: "empty", input: "   ", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.input)
			assert.Equal(t, tt.found, got.Found())
			assert.Equal(t, tt.want, got.Text())
		})
	}
}

func TestDecode(t *testing.T) {
	var out []struct {
		ID int `json:"id"`
	}
	require.NoError(t, Decode("Result:\n```json\n[{\"id\": 3}]\n```", &out))
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].ID)

	assert.ErrorIs(t, Decode("nothing here", &out), ErrNotFound)
	assert.Error(t, Decode("{ broken", &out))
}

func TestCandidates(t *testing.T) {
	got := Candidates(`See [0] and [3]. Answer: [{"id":0}] {"x":[1]}`)
	assert.Equal(t, []string{`[0]`, `[3]`, `[{"id":0}]`, `{"x":[1]}`}, got)

	assert.Nil(t, Candidates("nothing"))
}

func TestDecode_SkipsCandidatesOfWrongShape(t *testing.T) {
	var out []struct {
		ID    int     `json:"id"`
		Score float64 `json:"relevanceScore"`
	}
	text := "Article [0] is the most relevant, [1] less so.\n[{\"id\":0,\"relevanceScore\":3},{\"id\":1,\"relevanceScore\":2}]"
	require.NoError(t, Decode(text, &out))
	require.Len(t, out, 2)
	assert.Equal(t, 3.0, out[0].Score)
	assert.Equal(t, 2.0, out[1].Score)

	var obj struct {
		Title string `json:"translatedTitle"`
	}
	require.NoError(t, Decode(`Note [1]: {"translatedTitle":"제목"}`, &obj))
	assert.Equal(t, "제목", obj.Title)

	assert.Error(t, Decode(`[1] and [2]`, &out))
}
