// Package voice lists the speech synthesis voices the backend offers.
package voice

import (
	"fmt"
	"strings"
)

// Gender of a voice.
type Gender string

const (
	Female Gender = "Female"
	Male   Gender = "Male"
)

// Voice describes one synthesis voice.
type Voice struct {
	ID     string
	Gender Gender
}

// Variant returns the trailing letter of the voice id, e.g. "C" for
// "en-US-Standard-C".
func (v Voice) Variant() string {
	i := strings.LastIndexByte(v.ID, '-')
	if i < 0 {
		return ""
	}
	return v.ID[i+1:]
}

// Name returns the readable name of the voice.
func (v Voice) Name() string {
	return fmt.Sprintf("English US - %s (%s)", v.Gender, v.Variant())
}

// DefaultVoice is preselected in the dashboard and used by submissions that
// don't name a voice.
const DefaultVoice = "en-US-Standard-A"

var catalog = []Voice{
	{ID: "en-US-Standard-A", Gender: Female},
	{ID: "en-US-Standard-B", Gender: Male},
	{ID: "en-US-Standard-C", Gender: Female},
	{ID: "en-US-Standard-D", Gender: Male},
	{ID: "en-US-Standard-E", Gender: Female},
	{ID: "en-US-Standard-F", Gender: Female},
	{ID: "en-US-Standard-G", Gender: Female},
	{ID: "en-US-Standard-H", Gender: Female},
	{ID: "en-US-Standard-I", Gender: Male},
	{ID: "en-US-Standard-J", Gender: Male},
}

// All returns the catalog in display order.
func All() []Voice {
	return append([]Voice(nil), catalog...)
}

// Lookup finds a voice by id.
func Lookup(id string) (Voice, bool) {
	for _, v := range catalog {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}

// Index returns the position of id in All, or -1.
func Index(id string) int {
	for i, v := range catalog {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// ReadableName maps a voice id to its display name. Unknown ids are
// returned unchanged.
func ReadableName(id string) string {
	if v, ok := Lookup(id); ok {
		return v.Name()
	}
	return id
}
