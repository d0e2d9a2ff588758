package llm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrBudgetExceeded indicates a usage budget was exhausted before the
// request could run.
var ErrBudgetExceeded = errors.New("usage budget exceeded")

// budgetLLM enforces cumulative token and call limits across requests.
type budgetLLM struct {
	next      CoreLLM
	maxTokens int64
	maxCalls  int64
	tokens    atomic.Int64
	calls     atomic.Int64
}

// BudgetMiddleware caps cumulative usage across the client's lifetime:
// at most maxCalls requests and maxTokens total tokens (input plus
// output). A zero limit disables that dimension. Once a limit is hit,
// every further request fails with ErrBudgetExceeded.
func BudgetMiddleware(maxTokens, maxCalls int64) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &budgetLLM{next: next, maxTokens: maxTokens, maxCalls: maxCalls}
	}
}

func (b *budgetLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	if b.maxCalls > 0 && b.calls.Add(1) > b.maxCalls {
		return "", 0, 0, fmt.Errorf("%w: call limit %d reached", ErrBudgetExceeded, b.maxCalls)
	}
	if b.maxTokens > 0 && b.tokens.Load() >= b.maxTokens {
		return "", 0, 0, fmt.Errorf("%w: token limit %d reached", ErrBudgetExceeded, b.maxTokens)
	}

	response, tokensIn, tokensOut, err := b.next.DoRequest(ctx, prompt, opts)
	if err == nil {
		b.tokens.Add(int64(tokensIn + tokensOut))
	}
	return response, tokensIn, tokensOut, err
}

// Usage returns the tokens and calls consumed so far.
func (b *budgetLLM) Usage() (tokens, calls int64) {
	return b.tokens.Load(), b.calls.Load()
}

func (b *budgetLLM) GetModel() string { return b.next.GetModel() }

func (b *budgetLLM) SetModel(m string) { b.next.SetModel(m) }
