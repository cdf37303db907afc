package gateway

import (
	"github.com/disha-ai/disha/internal/career"
	"github.com/disha-ai/disha/internal/schema"
)

var roadmapSchema = schema.ArrayOf(schema.ObjectOf(
	schema.Field("phase", schema.Str("Phase name (e.g., Foundations, Advanced)")),
	schema.Field("title", schema.Str("Main title of this step")),
	schema.Field("duration", schema.Str("Estimated time to complete")),
	schema.Field("description", schema.Str("What to learn in this step")),
	schema.Field("skills", schema.ArrayOf(schema.Str(""))),
	schema.Field("tools", schema.ArrayOf(schema.Str(""))),
))

var questionsSchema = schema.ArrayOf(schema.ObjectOf(
	schema.Field("id", schema.Int("")),
	schema.Field("question", schema.Str("")),
	schema.Field("options", schema.ArrayOf(schema.Str(""))),
	schema.Field("correctAnswerIndex", schema.Int("Zero-based index of the correct option")),
	schema.Field("explanation", schema.Str("Why this is the correct answer")),
))

var coursesSchema = schema.ArrayOf(schema.ObjectOf(
	schema.Field("title", schema.Str("")),
	schema.Field("platform", schema.Str("")),
	schema.Field("level", schema.Enum("", string(career.Beginner), string(career.Intermediate), string(career.Advanced))),
	schema.Field("duration", schema.Str("")),
	schema.Field("isFree", schema.Bool("")),
	schema.Field("reason", schema.Str("")),
))

var resumeSchema = schema.ObjectOf(
	schema.Field("summary", schema.Str("Overall feedback summary")),
	schema.Field("score", schema.Int("Score out of 100")),
	schema.Field("strengths", schema.ArrayOf(schema.Str(""))),
	schema.Field("weaknesses", schema.ArrayOf(schema.Str(""))),
	schema.Field("improvements", schema.ArrayOf(schema.ObjectOf(
		schema.Field("original", schema.Str("The problematic line or section (or 'General')")),
		schema.Field("suggestion", schema.Str("Improved version or suggestion")),
		schema.Field("reason", schema.Str("Why this change helps")),
	))),
)
