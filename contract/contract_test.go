package contract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanFinding struct {
	Severity string `json:"severity" jsonschema:"enum=critical,enum=high,enum=medium,enum=low"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
}

type scanReport struct {
	Findings []scanFinding `json:"findings"`
	Score    float64       `json:"score"`
	Notes    string        `json:"notes,omitempty"`
}

func TestForType_GeneratesSchema(t *testing.T) {
	c, err := ForType[scanReport]("scan_report")
	require.NoError(t, err)
	assert.Equal(t, "scan_report", c.Name)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(c.Schema, &schema))

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok, "schema must expand properties inline")
	assert.Contains(t, props, "findings")
	assert.Contains(t, props, "score")

	required, ok := schema["required"].([]interface{})
	require.True(t, ok)
	assert.Contains(t, required, "findings")
	assert.Contains(t, required, "score")
	assert.NotContains(t, required, "notes")
}

func TestValidate_OK(t *testing.T) {
	c := MustForType[scanReport]("scan_report")

	payload := []byte(`{"findings":[{"severity":"high","file":"a.go","line":10,"message":"bad"}],"score":6.5}`)
	assert.NoError(t, c.Validate(payload))
}

func TestValidate_MissingRequired(t *testing.T) {
	c := MustForType[scanReport]("scan_report")

	err := c.Validate([]byte(`{"findings":[]}`))
	var verr *ViolationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "scan_report", verr.Contract)
	require.Len(t, verr.Details, 1)
	assert.Contains(t, verr.Details[0], `missing required field "score"`)
}

func TestValidate_EnumViolation(t *testing.T) {
	c := MustForType[scanReport]("scan_report")

	err := c.Validate([]byte(`{"findings":[{"severity":"catastrophic","message":"x"}],"score":1}`))
	var verr *ViolationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "catastrophic")
}

func TestValidate_WrongTypes(t *testing.T) {
	c := MustForType[scanReport]("scan_report")

	err := c.Validate([]byte(`{"findings":"none","score":"high"}`))
	var verr *ViolationError
	require.ErrorAs(t, err, &verr)

	// Both failures reported, not just the first.
	require.Len(t, verr.Details, 2)
	joined := strings.Join(verr.Details, "; ")
	assert.Contains(t, joined, "$.findings")
	assert.Contains(t, joined, "$.score")
}

func TestValidate_NestedPath(t *testing.T) {
	c := MustForType[scanReport]("scan_report")

	err := c.Validate([]byte(`{"findings":[{"severity":"low","message":"ok"},{"severity":"low","message":42}],"score":2}`))
	var verr *ViolationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Details, 1)
	assert.Contains(t, verr.Details[0], "$.findings[1].message")
}

func TestValidate_IntegerField(t *testing.T) {
	type counted struct {
		Count int `json:"count"`
	}
	c := MustForType[counted]("counted")

	assert.NoError(t, c.Validate([]byte(`{"count":3}`)))

	err := c.Validate([]byte(`{"count":3.5}`))
	var verr *ViolationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details[0], "expected integer")
}

func TestValidate_PayloadNotJSON(t *testing.T) {
	c := MustForType[scanReport]("scan_report")

	err := c.Validate([]byte(`{oops`))
	var verr *ViolationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details[0], "not valid JSON")
}

func TestValidate_HandWrittenSchema(t *testing.T) {
	c := New("verdict", json.RawMessage(`{
		"type": "object",
		"required": ["verdict"],
		"properties": {
			"verdict": {"type": "string", "enum": ["accepted", "rejected"]}
		}
	}`))

	assert.NoError(t, c.Validate([]byte(`{"verdict":"accepted"}`)))
	assert.Error(t, c.Validate([]byte(`{"verdict":"maybe"}`)))
	assert.Error(t, c.Validate([]byte(`{}`)))
}

func TestDecode(t *testing.T) {
	c := MustForType[scanReport]("scan_report")

	report, err := Decode[scanReport](c, []byte(`{"findings":[{"severity":"critical","message":"rm -rf"}],"score":0}`))
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "critical", report.Findings[0].Severity)

	_, err = Decode[scanReport](c, []byte(`{"score":1}`))
	var verr *ViolationError
	assert.True(t, errors.As(err, &verr), "decode must refuse invalid payloads")
}
