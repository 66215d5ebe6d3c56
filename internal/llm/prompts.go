package llm

import (
	"fmt"

	"github.com/ashureev/quiz-agent/internal/domain"
)

// SystemPrompt declares the three-tool textual protocol. The driver keeps
// it as the first message of every conversation; the detector in
// internal/tool parses responses written against it.
const SystemPrompt = `You are a quiz-solving agent that controls tools to find and submit answers.

## YOUR ROLE
You do NOT calculate, scrape, or decode directly. You CONTROL tools that do these actions.
Your job: Analyze context -> Choose correct tool -> Submit exact answer.

## AVAILABLE TOOLS

### TOOL: RUN_CODE
Execute Python code for calculations, data processing, and decoding.

Format:
TOOL: RUN_CODE
CODE:
` + "```python" + `
result = df[df[0] >= cutoff][0].sum()
print(int(result))
` + "```" + `

Available in code:
- df: pandas DataFrame loaded from the question's CSV data
- csv_data: raw CSV string
- extracted parameters (cutoff etc.) as top-level variables
- pd, np, plt and the standard library

Rules:
- ALWAYS print() the final result
- To produce a chart, save it as chart.png in the working directory

### TOOL: SCRAPE
Fetch data from another URL.

Format:
TOOL: SCRAPE
URL: /path/to/page

### TOOL: SUBMIT
Submit the final answer.

Format:
TOOL: SUBMIT
ANSWER: <exact value only>

## CRITICAL FORMAT RULES
- Numbers: just the number (852, not 852.00)
- Text: exact text only, no quotes, no JSON wrapping
- JSON arrays: the array itself, not wrapped in an object
- Multi-line answers (YAML, headers): raw text with newlines, no backticks

## WORKFLOW
1. Read the context: all collected data is already provided.
2. Use ONE tool per response.
3. Wait for the tool result before the next step.
4. Submit ONLY the raw answer value, no explanations.`

// QuestionPrompt asks the model to formulate the implied question from the
// assembled page context as a line-oriented structured record.
func QuestionPrompt(pageContext string) string {
	return fmt.Sprintf(`Analyze this quiz page data and extract the task.

%s

Output in EXACT format:
QUESTION: [exact question being asked]
CONTEXT: [key values, filenames, column names]
ANSWER_TYPE: [number/text/boolean/json/base64/image/file/chart]
SUBMIT_URL: [exact URL to post the answer to]
INSTRUCTIONS: [formatting requirements]`, pageContext)
}

// SolvePrompt is the opening user message of the solve conversation. It
// restates the formulated question alongside the full page context so the
// model never has to re-derive what was already extracted.
func SolvePrompt(q domain.Question, pageContext string) string {
	return fmt.Sprintf(`Solve this quiz question.

QUESTION: %s
CONTEXT: %s
ANSWER_TYPE: %s
INSTRUCTIONS: %s

FULL PAGE DATA:
%s`, q.Text, q.Context, q.AnswerType, q.Instructions, pageContext)
}

// Feedback strings appended by the driver after tool dispatch.
const (
	NudgeSubmit = "No tool call was recognized. Use one of the tools, or submit your final answer now with:\nTOOL: SUBMIT\nANSWER: <value>"

	AfterCodeOutput = "Now submit the final answer with TOOL: SUBMIT."
)
