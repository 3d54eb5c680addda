package curriculum

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"
)

type fakeModels struct {
	reply string
	err   error

	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.config = model, config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func TestPathFor(t *testing.T) {
	testCases := []struct {
		age        int
		instrument string
		expected   Path
	}{
		{age: 8, instrument: "Voice", expected: PathKinder},
		{age: 11, instrument: "Violin", expected: PathKinder},
		{age: 12, instrument: "Violin", expected: PathInstrumental},
		{age: 30, instrument: " Singing ", expected: PathVocal},
		{age: 30, instrument: "voice", expected: PathVocal},
		{age: 45, instrument: "Piano", expected: PathInstrumental},
	}

	for _, tc := range testCases {
		if got := PathFor(tc.age, tc.instrument); got != tc.expected {
			t.Fatalf("age %d, %q: expected %s, got %s", tc.age, tc.instrument, tc.expected, got)
		}
	}
}

func TestDiagnoseEnforcesPathRules(t *testing.T) {
	models := &fakeModels{reply: `{"name":"Lucia","age":9,"location":"Caracas","instrument":"Cello","goals":"Play in an orchestra","level":"Beginner","path":"instrumental"}`}
	client := NewClient(models)

	profile, err := client.Diagnose(context.Background(), []ChatMessage{
		{Sender: "tutor", Text: "How old are you?"},
		{Sender: "user", Text: "Nine"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Path != PathKinder {
		t.Fatalf("expected kinder path, got %s", profile.Path)
	}
	if profile.Level != LevelBeginner {
		t.Fatalf("expected normalized level, got %s", profile.Level)
	}

	if models.model != DefaultDiagnosisModel {
		t.Fatalf("unexpected model %q", models.model)
	}
	if models.config.ResponseMIMEType != "application/json" || models.config.ResponseJsonSchema == nil {
		t.Fatalf("expected structured output config, got %+v", models.config)
	}
	if !strings.Contains(models.prompt, "user: Nine\n") {
		t.Fatalf("expected conversation in prompt, got %q", models.prompt)
	}
}

func TestDiagnoseRejectsInvalidProfiles(t *testing.T) {
	testCases := []struct {
		name  string
		reply string
	}{
		{name: "not json", reply: "Lucia is nine"},
		{name: "unknown level", reply: `{"name":"Lucia","age":20,"level":"virtuoso"}`},
		{name: "missing age", reply: `{"name":"Lucia","level":"advanced"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := NewClient(&fakeModels{reply: tc.reply})
			if _, err := client.Diagnose(context.Background(), nil); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestDiagnosePropagatesModelErrors(t *testing.T) {
	cause := errors.New("quota exceeded")
	client := NewClient(&fakeModels{err: cause})

	if _, err := client.Diagnose(context.Background(), nil); !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestProfileSchemaListsEnums(t *testing.T) {
	client := NewClient(&fakeModels{})

	level, ok := client.profileSchema.Properties.Get("level")
	if !ok || len(level.Enum) != 3 {
		t.Fatalf("expected level enum in schema, got %+v", level)
	}
	if len(client.profileSchema.Required) != 7 {
		t.Fatalf("expected every field to be required, got %v", client.profileSchema.Required)
	}
}

func TestGeneratePlan(t *testing.T) {
	models := &fakeModels{reply: "\n# Welcome, Lucia\n"}
	client := NewClient(models, WithPlanModel("plan-model"))

	plan, err := client.GeneratePlan(context.Background(), StudentProfile{Name: "Lucia", Age: 9, Instrument: "Cello", Level: LevelBeginner})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan != "# Welcome, Lucia" {
		t.Fatalf("unexpected plan %q", plan)
	}
	if models.model != "plan-model" {
		t.Fatalf("unexpected model %q", models.model)
	}
	if models.config.Temperature == nil || *models.config.Temperature != 0.8 {
		t.Fatalf("expected temperature 0.8, got %v", models.config.Temperature)
	}
	if !strings.Contains(models.prompt, "- Name: Lucia") {
		t.Fatalf("expected profile in prompt, got %q", models.prompt)
	}
}

func TestGeneratePlanRejectsEmptyReply(t *testing.T) {
	client := NewClient(&fakeModels{reply: "  "})
	if _, err := client.GeneratePlan(context.Background(), StudentProfile{Name: "Lucia"}); err == nil {
		t.Fatalf("expected an error for an empty plan")
	}
}
