package tutors

import (
	"fmt"
	"sort"
	"strings"
)

// Voice describes how a tutor sounds. Name selects the prebuilt live voice.
// Pitch, Rate and Volume are roster data only: the live voice renders
// speech remotely and nothing applies them to playback.
type Voice struct {
	Name   string  `yaml:"name"`
	Pitch  float64 `yaml:"pitch"`
	Rate   float64 `yaml:"rate"`
	Volume float64 `yaml:"volume"`
}

// Profile is the persona a live session speaks as.
type Profile struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Title        string `yaml:"title"`
	Personality  string `yaml:"personality"`
	Salon        string `yaml:"salon"`
	Voice        Voice  `yaml:"voice"`
	SystemPrompt string `yaml:"system_prompt"`
}

func (p Profile) Validate() error {
	var missing []string
	if strings.TrimSpace(p.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(p.Voice.Name) == "" {
		missing = append(missing, "voice.name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("tutor profile %q is missing %s", p.ID, strings.Join(missing, ", "))
	}
	return nil
}

// Roster is a set of profiles keyed by ID.
type Roster map[string]Profile

func (r Roster) Lookup(id string) (Profile, bool) {
	profile, ok := r[strings.ToUpper(strings.TrimSpace(id))]
	return profile, ok
}

// IDs returns the roster keys in stable order.
func (r Roster) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
