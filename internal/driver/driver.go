// Package driver runs the bounded conversation loop between the LLM and
// the tools it controls. The driver owns the round budget and the tool
// dispatch; everything it learns flows back to the model as user messages.
package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashureev/quiz-agent/internal/llm"
	"github.com/ashureev/quiz-agent/internal/sandbox"
	"github.com/ashureev/quiz-agent/internal/scrape"
	"github.com/ashureev/quiz-agent/internal/tool"
)

// ErrMaxIterations is returned when the round budget is spent without the
// model submitting an answer.
var ErrMaxIterations = errors.New("conversation exhausted without a submitted answer")

// scrapeFeedbackLimit bounds how much of a secondary fetch is echoed back
// into the conversation.
const scrapeFeedbackLimit = 8000

// Fetcher performs the secondary fetches requested through TOOL: SCRAPE.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

// Driver drives one question to an answer within a fixed number of rounds.
type Driver struct {
	client    llm.Client
	exec      sandbox.Executor
	fetcher   Fetcher
	maxRounds int
}

// New creates a Driver. maxRounds values below one fall back to one.
func New(client llm.Client, exec sandbox.Executor, fetcher Fetcher, maxRounds int) *Driver {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &Driver{client: client, exec: exec, fetcher: fetcher, maxRounds: maxRounds}
}

// Drive runs the conversation until the model submits an answer or the
// round budget runs out. It returns the raw response that carried the
// submission. Transport failures do not abort the loop: the error text is
// recorded as the assistant turn so the model's next round sees it.
func (d *Driver) Drive(ctx context.Context, prompt, baseURL string, b sandbox.Bindings) (string, error) {
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: llm.SystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}

	for round := 0; round < d.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := d.client.Chat(ctx, msgs)
		if err != nil {
			resp = fmt.Sprintf("[Error: %v]", err)
		}
		msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: resp})

		inv := tool.Detect(resp)
		switch inv.Kind {
		case tool.RunCode:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: d.runCode(ctx, inv.Code, b)})
		case tool.Scrape:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: d.scrapeURL(ctx, baseURL, inv.URL)})
		case tool.Submit:
			return resp, nil
		default:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: llm.NudgeSubmit})
		}
	}

	return "", ErrMaxIterations
}

// runCode executes the model's code in the sandbox and renders the result
// as conversation feedback. Execution failures are feedback, not errors:
// the model gets a chance to fix its own code.
func (d *Driver) runCode(ctx context.Context, code string, b sandbox.Bindings) string {
	res, err := d.exec.Execute(ctx, code, b)
	if err != nil {
		return "CODE ERROR: " + err.Error()
	}
	if res.Error != "" {
		return "CODE ERROR: " + res.Error
	}
	return "CODE OUTPUT:\n" + res.Output + "\n\n" + llm.AfterCodeOutput
}

// scrapeURL fetches the requested page, resolving relative references
// against the current question URL.
func (d *Driver) scrapeURL(ctx context.Context, baseURL, ref string) string {
	target := scrape.Resolve(baseURL, ref)
	body, err := d.fetcher.Get(ctx, target)
	if err != nil {
		return fmt.Sprintf("SCRAPE ERROR (%s): %v", target, err)
	}
	if len(body) > scrapeFeedbackLimit {
		body = body[:scrapeFeedbackLimit] + "\n[truncated]"
	}
	return "SCRAPED (" + target + "):\n" + body
}
