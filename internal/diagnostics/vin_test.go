package diagnostics

import (
	"testing"

	"github.com/kiranshivaraju/fieldops/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVIN_Format(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "valid ford", input: "1FTFW1ET5DFA12345", valid: true},
		{name: "lower case is normalised", input: "1ftfw1et5dfa12345", valid: true},
		{name: "surrounding whitespace trimmed", input: "  1FTFW1ET5DFA12345 ", valid: true},
		{name: "empty", input: "", valid: false},
		{name: "too short", input: "1FTFW1ET5DFA1234", valid: false},
		{name: "too long", input: "1FTFW1ET5DFA123456", valid: false},
		{name: "contains I", input: "1FTFW1ET5DFA1234I", valid: false},
		{name: "contains O", input: "1FTFW1ET5DFA1234O", valid: false},
		{name: "contains Q", input: "1FTFW1ET5DFA1234Q", valid: false},
		{name: "punctuation", input: "1FTFW1ET5DFA-2345", valid: false},
		{name: "inner space", input: "1FTFW1ET5 FA12345", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseVIN(tt.input)
			assert.Equal(t, tt.valid, res.Valid)
			if !tt.valid {
				assert.Empty(t, res.EngineFamily, "malformed input must not carry an engine family")
				assert.Empty(t, res.VIN)
				assert.Empty(t, res.WMI)
			}
		})
	}
}

func TestParseVIN_EngineFamily(t *testing.T) {
	tests := []struct {
		vin    string
		family string
	}{
		{vin: "1FTFW1ET5DFA12345", family: "ford-ecoboost-3.5"},
		{vin: "1FTEW1EG0HFA00001", family: "ford-ecoboost-3.5"},
		{vin: "1GCUKREC4EF123456", family: "gm-5.3-v8"},
		{vin: "5TDZK3DK0ES123456", family: "toyota-2gr-fe"},
		{vin: "1HGCP2F44AA123456", family: "honda-k24"},
		{vin: "1C6RR7LT5ES123456", family: "chrysler-5.7-hemi"},
		{vin: "WVWAA71H8BW123456", family: "vw-ea888"},
		// right manufacturer, engine character not covered by the rule
		{vin: "1FTFW1EF5DFA12345", family: models.UnknownEngineFamily},
		// manufacturer not covered at all
		{vin: "1M8GDM9AXKP042788", family: models.UnknownEngineFamily},
	}

	for _, tt := range tests {
		t.Run(tt.vin, func(t *testing.T) {
			res := ParseVIN(tt.vin)
			require.True(t, res.Valid)
			assert.Equal(t, tt.family, res.EngineFamily)
			assert.Equal(t, tt.vin[:3], res.WMI)
		})
	}
}

func TestDecodeVIN(t *testing.T) {
	res, err := DecodeVIN("1FTFW1ET5DFA12345")
	require.NoError(t, err)
	assert.Equal(t, "ford-ecoboost-3.5", res.EngineFamily)

	_, err = DecodeVIN("NOT-A-VIN")
	assert.ErrorIs(t, err, ErrInvalidVIN)
}

func TestVINRules_FamiliesExistInKnowledgeBase(t *testing.T) {
	kb := DefaultKnowledgeBase()
	for _, r := range vinRules {
		_, ok := kb.Engine(r.family)
		assert.True(t, ok, "rule family %q has no knowledge base entry", r.family)
	}
}
