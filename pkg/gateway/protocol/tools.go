package protocol

// The four tool names the model may invoke. The set is closed: dispatch is
// an exhaustive switch, not open string lookup.
const (
	ToolRecordResponse  = "record_response"
	ToolGetNextQuestion = "get_next_question"
	ToolValidateAnswer  = "validate_answer"
	ToolGetDemoContext  = "get_demo_context"
)

// ToolSchemas declares the full tool set presented to the model at session
// start.
func ToolSchemas() []ToolSchema {
	return []ToolSchema{
		{
			Name:        ToolRecordResponse,
			Description: "Record the respondent's answer to the current question.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question_id": map[string]any{
						"type":        "string",
						"description": "Identifier of the question being answered.",
					},
					"value": map[string]any{
						"description": "The respondent's answer. A number for rating and NPS questions, a string for open-ended and choice questions, an array of strings for multi-select questions.",
					},
				},
				"required": []string{"question_id", "value"},
			},
		},
		{
			Name:        ToolGetNextQuestion,
			Description: "Advance to the next eligible question, or learn that the survey is complete.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        ToolValidateAnswer,
			Description: "Check whether a candidate answer fits a question's declared type and options without recording it.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question_id": map[string]any{
						"type":        "string",
						"description": "Identifier of the question to validate against.",
					},
					"value": map[string]any{
						"description": "The candidate answer.",
					},
				},
				"required": []string{"question_id", "value"},
			},
		},
		{
			Name:        ToolGetDemoContext,
			Description: "Fetch a read-only snapshot of the survey context: questionnaire id, progress, and descriptive metadata.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}
