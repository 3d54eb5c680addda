package curriculum

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrInvalidProfile = errors.New("invalid student profile")

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

type Path string

const (
	PathKinder       Path = "kinder"
	PathVocal        Path = "vocal"
	PathInstrumental Path = "instrumental"
)

// kinderAgeLimit is the first age that is no longer placed on the kinder
// path.
const kinderAgeLimit = 12

var vocalInstruments = []string{"voice", "singing", "voz", "canto"}

// StudentProfile is the diagnosis of a prospective student.
type StudentProfile struct {
	Name       string `json:"name" jsonschema:"description=The student's full name."`
	Age        int    `json:"age" jsonschema:"description=The student's age in years."`
	Location   string `json:"location" jsonschema:"description=The student's city or country."`
	Instrument string `json:"instrument" jsonschema:"description=The instrument they wish to learn."`
	Goals      string `json:"goals" jsonschema:"description=Their musical aspirations and goals."`
	Level      Level  `json:"level" jsonschema:"enum=beginner,enum=intermediate,enum=advanced,description=The assessed skill level."`
	Path       Path   `json:"path" jsonschema:"enum=kinder,enum=vocal,enum=instrumental,description=The learning path determined by age and instrument."`
}

// PathFor applies the placement rules: children go to kinder, singers to
// vocal and everyone else to instrumental.
func PathFor(age int, instrument string) Path {
	if age < kinderAgeLimit {
		return PathKinder
	}
	if slices.Contains(vocalInstruments, strings.ToLower(strings.TrimSpace(instrument))) {
		return PathVocal
	}
	return PathInstrumental
}

// Normalize validates the profile and overrides the path with the one the
// placement rules dictate.
func (p *StudentProfile) Normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Instrument = strings.TrimSpace(p.Instrument)
	p.Level = Level(strings.ToLower(strings.TrimSpace(string(p.Level))))

	switch {
	case p.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidProfile)
	case p.Age <= 0:
		return fmt.Errorf("%w: age %d", ErrInvalidProfile, p.Age)
	}

	switch p.Level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
	default:
		return fmt.Errorf("%w: unknown level %q", ErrInvalidProfile, p.Level)
	}

	p.Path = PathFor(p.Age, p.Instrument)
	return nil
}
