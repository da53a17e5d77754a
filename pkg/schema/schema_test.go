package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJudgmentSchema(t *testing.T) {
	raw, err := json.Marshal(JudgmentSchema)
	require.NoError(t, err)

	var s struct {
		Required             []string       `json:"required"`
		AdditionalProperties *bool          `json:"additionalProperties"`
		Properties           map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &s))

	assert.ElementsMatch(t, []string{"summary", "possible_crimes", "verdict", "disclaimer"}, s.Required)
	require.NotNil(t, s.AdditionalProperties)
	assert.False(t, *s.AdditionalProperties)
	assert.Contains(t, string(raw), `"enum":["LOW","MEDIUM","HIGH"]`)
}

func TestStructuredOutputsResponseFormat(t *testing.T) {
	f := StructuredOutputsResponseFormat()
	require.NotNil(t, f.OfJSONSchema)
	assert.Equal(t, "judgment", f.OfJSONSchema.JSONSchema.Name)
	assert.True(t, f.OfJSONSchema.JSONSchema.Strict.Value)
}

func TestLoginRequest_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"udid":"device-0001"}`, "device-0001"},
		{`{"uuid":"device-0002"}`, "device-0002"},
		{`{"udid":"from-udid","uuid":"from-uuid"}`, "from-udid"},
		{`{}`, ""},
	}
	for _, tt := range tests {
		var r LoginRequest
		require.NoError(t, json.Unmarshal([]byte(tt.body), &r), tt.body)
		assert.Equal(t, tt.want, r.UDID, tt.body)
	}

	var r LoginRequest
	assert.Error(t, json.Unmarshal([]byte(`{"udid":42}`), &r))
}

func TestLoginRequest_Normalized(t *testing.T) {
	udid, err := LoginRequest{UDID: "  device-0001 \n"}.Normalized()
	require.NoError(t, err)
	assert.Equal(t, "device-0001", udid)

	_, err = LoginRequest{UDID: "        "}.Normalized()
	assert.Error(t, err)
}

func TestJudgment_JSONFieldNames(t *testing.T) {
	raw, err := json.Marshal(Judgment{PossibleCrimes: []Crime{{Title: "t", Basis: "b", Severity: SeverityHigh}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"","possible_crimes":[{"title":"t","basis":"b","severity":"HIGH"}],"verdict":"","disclaimer":""}`, string(raw))
}
