// Package curriculum diagnoses prospective students from an intake
// conversation and drafts their study plan.
package curriculum

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const (
	DefaultDiagnosisModel = "gemini-2.5-flash"
	DefaultPlanModel      = "gemini-2.5-pro"

	planTemperature = 0.8
)

// ContentGenerator is satisfied by genai's Models service.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type ChatMessage struct {
	Sender string
	Text   string
}

type Client struct {
	models         ContentGenerator
	diagnosisModel string
	planModel      string
	profileSchema  *jsonschema.Schema
}

type ClientOption func(*Client)

func WithDiagnosisModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.diagnosisModel = model
		}
	}
}

func WithPlanModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.planModel = model
		}
	}
}

func NewClient(models ContentGenerator, opts ...ClientOption) *Client {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	c := &Client{
		models:         models,
		diagnosisModel: DefaultDiagnosisModel,
		planModel:      DefaultPlanModel,
		profileSchema:  reflector.Reflect(&StudentProfile{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Diagnose asks the model for a structured profile of the student in
// history. The returned profile has already been normalized.
func (c *Client) Diagnose(ctx context.Context, history []ChatMessage) (*StudentProfile, error) {
	ctx, span := tracer.Start(ctx, "diagnose student")
	defer span.End()
	span.SetAttributes(attribute.Int("history.length", len(history)))

	resp, err := c.models.GenerateContent(ctx, c.diagnosisModel, genai.Text(diagnosisPrompt(history)), &genai.GenerateContentConfig{
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: c.profileSchema,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to generate diagnosis: %w", err)
	}

	var profile StudentProfile
	if err := json.Unmarshal([]byte(resp.Text()), &profile); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to parse diagnosis: %w", err)
	}

	reported := profile.Path
	if err := profile.Normalize(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if reported != profile.Path {
		logger.Debug("corrected diagnosed path",
			slog.String("reported", string(reported)),
			slog.String("path", string(profile.Path)))
	}

	span.SetAttributes(attribute.String("student.path", string(profile.Path)))
	return &profile, nil
}

// GeneratePlan drafts a ten module curriculum in markdown.
func (c *Client) GeneratePlan(ctx context.Context, profile StudentProfile) (string, error) {
	ctx, span := tracer.Start(ctx, "generate study plan")
	defer span.End()

	resp, err := c.models.GenerateContent(ctx, c.planModel, genai.Text(planPrompt(profile)), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](planTemperature),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to generate study plan: %w", err)
	}

	plan := strings.TrimSpace(resp.Text())
	if plan == "" {
		return "", fmt.Errorf("model returned an empty study plan")
	}
	return plan, nil
}

func diagnosisPrompt(history []ChatMessage) string {
	var conversation strings.Builder
	for _, message := range history {
		fmt.Fprintf(&conversation, "%s: %s\n", message.Sender, message.Text)
	}

	return fmt.Sprintf(`Based on the following conversation with a prospective student for a music conservatory,
diagnose the student and generate a JSON object representing their profile.
The student's path must be 'kinder' if age < 12, 'vocal' if instrument is 'Voice' or 'Singing', and 'instrumental' otherwise.
The level must be one of 'beginner', 'intermediate', or 'advanced', based on their self-described goals and experience.

Conversation History:
%s
Return ONLY the raw JSON object, without any markdown formatting.`, conversation.String())
}

func planPrompt(profile StudentProfile) string {
	return fmt.Sprintf(`As Maestre Arco, the director of a grand digital music conservatory,
create a detailed, inspiring, and well-structured 10-module curriculum for a student with the following profile.

Student Profile:
- Name: %s
- Age: %d
- Instrument: %s
- Level: %s
- Goals: %s

The plan should begin with a majestic and solemn welcoming message from you, Maestre Arco.
Each module should have a clear title and three distinct parts or objectives.
The tone must be encouraging and grand, fitting for a world-class conservatory.
Conclude the plan with a final motivational paragraph.

Return the entire plan as a single, clean block of Markdown text.`,
		profile.Name, profile.Age, profile.Instrument, profile.Level, profile.Goals)
}
