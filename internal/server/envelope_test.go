package server

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverID(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"number", `{"id": 12, "method":`, "12"},
		{"negative", `{"id":-4,`, "-4"},
		{"string", `{"jsonrpc":"2.0","id":"req-9"`, `"req-9"`},
		{"escaped string", `{"id":"a\"b",`, `"a\"b"`},
		{"no id", `{"jsonrpc":"2.0",`, ""},
		{"garbage", `not json`, ""},
		{"object id", `{"id":{"x":1}`, ""},
		{"nested id ignored", `{"jsonrpc":"2.0","method":"initialize","params":{"id":99},"id":12,`, "12"},
		{"only nested id", `{"jsonrpc":"2.0","params":{"id":99},"method":`, ""},
		{"id inside array", `{"params":[{"id":5}],"id":"top",`, `"top"`},
		{"id after syntax error", `{"jsonrpc":"2.0" "id":3}`, ""},
		{"null id", `{"id":null,"method":`, "null"},
		{"bool id", `{"id":true,`, ""},
		{"not an object", `[{"id":1}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recoverID([]byte(tt.line))
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestValidID(t *testing.T) {
	for _, raw := range []string{`1`, `-1`, `0.5`, `"x"`, `""`, `null`} {
		assert.True(t, validID(json.RawMessage(raw)), raw)
	}
	for _, raw := range []string{`true`, `false`, `{}`, `[]`, ``} {
		assert.False(t, validID(json.RawMessage(raw)), raw)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	req, id, err := decodeEnvelope([]byte(`  {"jsonrpc":"2.0","method":"agents/query","params":{"context":"go"},"id":"q"}  `))
	require.Nil(t, err)
	assert.Equal(t, `"q"`, string(id))
	assert.True(t, req.HasID)
	assert.Equal(t, "agents/query", req.Method)
	assert.JSONEq(t, `{"context":"go"}`, string(req.Params))

	req, _, err = decodeEnvelope([]byte(`{"jsonrpc":"2.0","method":"health","params":null}`))
	require.Nil(t, err)
	assert.False(t, req.HasID)
	assert.Nil(t, req.Params)

	_, _, err = decodeEnvelope([]byte(`{"jsonrpc":"2.0","method":""}`))
	require.NotNil(t, err)
	assert.Equal(t, CodeInvalidRequest, err.Code)
}

func TestParseMethod(t *testing.T) {
	for _, m := range []Method{MethodInitialize, MethodHealth, MethodAgentsQuery} {
		got, ok := ParseMethod(m.String())
		require.True(t, ok)
		assert.Equal(t, m, got)
	}

	_, ok := ParseMethod("agents/list")
	assert.False(t, ok)
	assert.Equal(t, "Method(42)", Method(42).String())
}

func TestAgentsQueryParamsLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit json.Number
		want  int
	}{
		{"absent", "", 10},
		{"explicit", "3", 3},
		{"exponent", "2e1", 20},
		{"zero", "0", 0},
		{"negative", "-7", 0},
		{"clamped", "1000000000000", math.MaxInt32},
		{"beyond float64", "1e400", math.MaxInt32},
		{"negative beyond float64", "-1e400", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := agentsQueryParams{Context: "go", Limit: tt.limit}
			got, err := p.limit(10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := agentsQueryParams{Context: "go", Limit: "five"}.limit(10)
	assert.ErrorContains(t, err, "params/limit")
}

func TestAgentsQueryParams_NullLimitDecodesAsAbsent(t *testing.T) {
	var p agentsQueryParams
	require.NoError(t, json.Unmarshal([]byte(`{"context":"go","limit":null}`), &p))
	got, err := p.limit(10)
	require.NoError(t, err)
	assert.Equal(t, 10, got)
}

func TestFormatSchemaError(t *testing.T) {
	schemas, err := compileSchemas()
	require.NoError(t, err)

	rpcErr := schemas.validate(MethodAgentsQuery, json.RawMessage(`{"limit":"x"}`))
	require.NotNil(t, rpcErr)
	detail, ok := rpcErr.Data.(string)
	require.True(t, ok)
	assert.Contains(t, detail, "params")
	assert.Contains(t, detail, "context")
	assert.Contains(t, detail, "/limit")

	assert.Nil(t, schemas.validate(MethodHealth, nil))
}
