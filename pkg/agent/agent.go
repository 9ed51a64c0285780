package agent

import (
	"context"

	"igstat/pkg/logger"
	"igstat/pkg/session"
)

const systemPrompt = `You are an Instagram analytics assistant inside a terminal client.
Answer questions about profiles, reels, followers, likers, comments, stories and highlights using the provided tools.
Rules:
- Use tools for every fact; never invent numbers or usernames.
- A SESSION_CONTEXT message describes what the user is currently looking at; prefer it over asking which profile or media is meant.
- Follower sampling and liker ranking spend one API request per enriched profile, so keep sample sizes modest unless asked otherwise.
- When a tool returns {"ok":false,...}, read the error, adjust or pick another tool, and tell the user what went wrong if you cannot recover.
- Answer concisely in plain text suitable for a terminal.`

const fallbackAnswer = "I couldn't finish answering within the step budget. The data fetched so far has been kept in the session; try a more specific question or a direct command."

// historyWindow bounds how many prior turns ride along each question.
const historyWindow = 8

// Agent runs the ask loop: model turn, tool execution, repeat.
type Agent struct {
	client   *Client
	executor *Executor
	sess     *session.Context
	maxSteps int
	log      logger.Logger
}

// New assembles an agent.
func New(client *Client, executor *Executor, sess *session.Context, maxSteps int, log logger.Logger) *Agent {
	if maxSteps <= 0 {
		maxSteps = 4
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Agent{client: client, executor: executor, sess: sess, maxSteps: maxSteps, log: log}
}

// Client exposes the underlying chat client, for model switching.
func (a *Agent) Client() *Client { return a.client }

// Ask answers one question, running at most maxSteps model turns.
// Tool calls within a turn execute strictly in the order the model
// requested them.
func (a *Agent) Ask(ctx context.Context, question string) (string, error) {
	messages := a.seedMessages(question)

	for step := 0; step < a.maxSteps; step++ {
		reply, err := a.client.CreateChatCompletion(ctx, messages, AllTools())
		if err != nil {
			return "", err
		}

		if len(reply.ToolCalls) == 0 {
			a.sess.AppendHistory("user", question)
			a.sess.AppendHistory("assistant", reply.Content)
			return reply.Content, nil
		}

		messages = append(messages, *reply)
		for _, call := range reply.ToolCalls {
			result := a.executor.Execute(ctx, call)
			messages = append(messages, ChatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	a.log.WithField("steps", a.maxSteps).Warn("step budget exhausted")
	a.sess.AppendHistory("user", question)
	a.sess.AppendHistory("assistant", fallbackAnswer)
	return fallbackAnswer, nil
}

// seedMessages builds the prompt: system rules, the session snapshot,
// a bounded slice of prior turns, then the question.
func (a *Agent) seedMessages(question string) []ChatMessage {
	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "system", Content: "SESSION_CONTEXT: " + a.sess.ContextJSON()},
	}
	for _, entry := range a.sess.History(historyWindow) {
		messages = append(messages, ChatMessage{Role: entry.Role, Content: entry.Content})
	}
	return append(messages, ChatMessage{Role: "user", Content: question})
}
