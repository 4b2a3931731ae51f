package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Ref
		wantErr bool
	}{
		{name: "pair", input: `[7, "Plant"]`, want: Ref{ID: 7, Name: "Plant"}},
		{name: "bare id", input: `12`, want: Ref{ID: 12}},
		{name: "false", input: `false`, want: Ref{}},
		{name: "null", input: `null`, want: Ref{}},
		{name: "empty list", input: `[]`, want: Ref{}},
		{name: "id only list", input: `[3]`, want: Ref{ID: 3}},
		{name: "non-string label", input: `[3, false]`, want: Ref{ID: 3}},
		{name: "string id", input: `"abc"`, wantErr: true},
		{name: "bad pair", input: `["x", "y"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Ref
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRef_ListOfMixedForms(t *testing.T) {
	var deps []Ref
	require.NoError(t, json.Unmarshal([]byte(`[4, [5, "Permits"], false]`), &deps))
	assert.Equal(t, []Ref{{ID: 4}, {ID: 5, Name: "Permits"}, {}}, deps)
}

func TestRef_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Ref `json:"a"`
		B Ref `json:"b"`
	}{A: Ref{ID: 7, Name: "Plant"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": [7, "Plant"], "b": false}`, string(data))
}

func TestStatus_Label(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusPlanned, "Planned"},
		{StatusInProgress, "In Progress"},
		{StatusDelayed, "Delayed"},
		{StatusDone, "Done"},
		{StatusAtRisk, "At Risk"},
		{Status("bogus"), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Label())
		})
	}
}
