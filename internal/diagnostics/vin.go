package diagnostics

import (
	"errors"
	"strings"

	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// ErrInvalidVIN is returned by DecodeVIN for identifiers that fail format validation.
var ErrInvalidVIN = errors.New("invalid vehicle identification number")

const vinLength = 17

// vinAlphabet excludes I, O and Q, which are never used in VINs.
const vinAlphabet = "0123456789ABCDEFGHJKLMNPRSTUVWXYZ"

// VINResult is the outcome of parsing a vehicle identifier.
type VINResult struct {
	Valid        bool   `json:"valid"`
	VIN          string `json:"vin,omitempty"`
	WMI          string `json:"wmi,omitempty"`
	EngineFamily string `json:"engine_family,omitempty"`
}

// vinRule maps a set of world manufacturer identifiers plus the engine
// character (position 8) to an engine family. Coverage is deliberately
// partial; anything unmatched is reported as the unknown family.
type vinRule struct {
	family      string
	wmi         []string
	engineCodes string
}

var vinRules = []vinRule{
	{family: "ford-ecoboost-3.5", wmi: []string{"1FT", "1FM", "1FA"}, engineCodes: "GT"},
	{family: "gm-5.3-v8", wmi: []string{"1GC", "1GT", "1GN", "3GC"}, engineCodes: "CJL"},
	{family: "toyota-2gr-fe", wmi: []string{"4T1", "5TD", "5TF", "JTD"}, engineCodes: "KZ"},
	{family: "honda-k24", wmi: []string{"1HG", "2HG", "JHM", "5J6"}, engineCodes: "45"},
	{family: "chrysler-5.7-hemi", wmi: []string{"1C4", "1C6", "2C3", "3C6"}, engineCodes: "T"},
	{family: "vw-ea888", wmi: []string{"WVW", "WVG", "3VW", "WAU"}, engineCodes: "AH"},
}

// ParseVIN validates the identifier format and maps it to an engine family.
// Malformed input yields Valid=false and nothing else.
func ParseVIN(raw string) VINResult {
	vin := strings.ToUpper(strings.TrimSpace(raw))
	if !wellFormedVIN(vin) {
		return VINResult{Valid: false}
	}
	return VINResult{
		Valid:        true,
		VIN:          vin,
		WMI:          vin[:3],
		EngineFamily: engineFamily(vin),
	}
}

// DecodeVIN is ParseVIN for callers that want malformed input as an error.
func DecodeVIN(raw string) (VINResult, error) {
	res := ParseVIN(raw)
	if !res.Valid {
		return res, ErrInvalidVIN
	}
	return res, nil
}

func wellFormedVIN(vin string) bool {
	if len(vin) != vinLength {
		return false
	}
	for i := 0; i < len(vin); i++ {
		if strings.IndexByte(vinAlphabet, vin[i]) < 0 {
			return false
		}
	}
	return true
}

func engineFamily(vin string) string {
	wmi, engine := vin[:3], vin[7]
	for _, r := range vinRules {
		if strings.IndexByte(r.engineCodes, engine) < 0 {
			continue
		}
		for _, w := range r.wmi {
			if w == wmi {
				return r.family
			}
		}
	}
	return models.UnknownEngineFamily
}
