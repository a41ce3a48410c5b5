package models

import (
	"encoding/json"
	"strings"
)

// BrothType is the soup base of a bowl. The zero value means "not set".
type BrothType uint8

const (
	BrothUnset BrothType = iota
	BrothTonkotsu
	BrothShoyu
	BrothMiso
	BrothShio
	BrothTantanmen
	BrothTsukemen
	BrothOther
)

// SpiceLevel is an ordered 0..4 heat scale. The zero value means "not set";
// SpiceNone is a real value ("Not Spicy").
type SpiceLevel uint8

const (
	SpiceUnset SpiceLevel = iota
	SpiceNone
	SpiceMild
	SpiceMedium
	SpiceHot
	SpiceExtreme
)

// NoodleTexture is the ordered firmness of the noodles. The zero value means
// "not set".
type NoodleTexture uint8

const (
	NoodleUnset NoodleTexture = iota
	NoodleSoft
	NoodleMedium
	NoodleFirm
	NoodleExtraFirm
)

type tagEntry struct {
	token   string
	display string
}

var brothTable = map[BrothType]tagEntry{
	BrothTonkotsu:  {"TONKOTSU", "Tonkotsu"},
	BrothShoyu:     {"SHOYU", "Shoyu"},
	BrothMiso:      {"MISO", "Miso"},
	BrothShio:      {"SHIO", "Shio"},
	BrothTantanmen: {"TANTANMEN", "Tantanmen"},
	BrothTsukemen:  {"TSUKEMEN", "Tsukemen"},
	BrothOther:     {"OTHER", "Other"},
}

var spiceTable = map[SpiceLevel]tagEntry{
	SpiceNone:    {"NONE", "Not Spicy"},
	SpiceMild:    {"MILD", "Mild"},
	SpiceMedium:  {"MEDIUM", "Medium"},
	SpiceHot:     {"HOT", "Hot"},
	SpiceExtreme: {"EXTREME", "Extreme"},
}

var noodleTable = map[NoodleTexture]tagEntry{
	NoodleSoft:      {"SOFT", "Soft"},
	NoodleMedium:    {"MEDIUM", "Medium"},
	NoodleFirm:      {"FIRM", "Firm"},
	NoodleExtraFirm: {"EXTRA_FIRM", "Extra Firm"},
}

var (
	brothByToken  = invert(brothTable)
	spiceByToken  = invert(spiceTable)
	noodleByToken = invert(noodleTable)
)

func invert[K comparable](table map[K]tagEntry) map[string]K {
	out := make(map[string]K, len(table))
	for k, e := range table {
		out[e.token] = k
	}
	return out
}

// lookupToken matches case-insensitively; unknown tokens map to the zero value.
func lookupToken[K comparable](byToken map[string]K, token string) K {
	return byToken[strings.ToUpper(strings.TrimSpace(token))]
}

// decodeToken never fails: anything that is not a known string token decodes
// to the zero value.
func decodeToken[K comparable](byToken map[string]K, data []byte) K {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var zero K
		return zero
	}
	return lookupToken(byToken, s)
}

func encodeToken(e tagEntry, ok bool) ([]byte, error) {
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(e.token)
}

// ParseBrothType maps a wire token to a BrothType.
func ParseBrothType(token string) BrothType { return lookupToken(brothByToken, token) }

// ParseSpiceLevel maps a wire token to a SpiceLevel.
func ParseSpiceLevel(token string) SpiceLevel { return lookupToken(spiceByToken, token) }

// ParseNoodleTexture maps a wire token to a NoodleTexture.
func ParseNoodleTexture(token string) NoodleTexture { return lookupToken(noodleByToken, token) }

// Token returns the uppercase wire token, or "" when unset.
func (b BrothType) Token() string { return brothTable[b].token }

// String returns the display name.
func (b BrothType) String() string { return brothTable[b].display }

// IsSet reports whether b holds a value.
func (b BrothType) IsSet() bool { _, ok := brothTable[b]; return ok }

// MarshalJSON implements json.Marshaler.
func (b BrothType) MarshalJSON() ([]byte, error) {
	e, ok := brothTable[b]
	return encodeToken(e, ok)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *BrothType) UnmarshalJSON(data []byte) error {
	*b = decodeToken(brothByToken, data)
	return nil
}

// Token returns the uppercase wire token, or "" when unset.
func (s SpiceLevel) Token() string { return spiceTable[s].token }

// String returns the display name.
func (s SpiceLevel) String() string { return spiceTable[s].display }

// IsSet reports whether s holds a value.
func (s SpiceLevel) IsSet() bool { _, ok := spiceTable[s]; return ok }

// Scale returns the 0..4 heat value.
func (s SpiceLevel) Scale() (int, bool) {
	if !s.IsSet() {
		return 0, false
	}
	return int(s - SpiceNone), true
}

// MarshalJSON implements json.Marshaler.
func (s SpiceLevel) MarshalJSON() ([]byte, error) {
	e, ok := spiceTable[s]
	return encodeToken(e, ok)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SpiceLevel) UnmarshalJSON(data []byte) error {
	*s = decodeToken(spiceByToken, data)
	return nil
}

// Token returns the uppercase wire token, or "" when unset.
func (n NoodleTexture) Token() string { return noodleTable[n].token }

// String returns the display name.
func (n NoodleTexture) String() string { return noodleTable[n].display }

// IsSet reports whether n holds a value.
func (n NoodleTexture) IsSet() bool { _, ok := noodleTable[n]; return ok }

// MarshalJSON implements json.Marshaler.
func (n NoodleTexture) MarshalJSON() ([]byte, error) {
	e, ok := noodleTable[n]
	return encodeToken(e, ok)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NoodleTexture) UnmarshalJSON(data []byte) error {
	*n = decodeToken(noodleByToken, data)
	return nil
}

// AllBrothTypes lists every settable broth in display order.
func AllBrothTypes() []BrothType {
	return []BrothType{BrothTonkotsu, BrothShoyu, BrothMiso, BrothShio, BrothTantanmen, BrothTsukemen, BrothOther}
}
