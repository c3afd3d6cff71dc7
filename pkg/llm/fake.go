package llm

import "context"

// FakeClient is a scriptable Client used by tests elsewhere in this
// module. Responses is consumed in order, one per Call; ToolCalls, if
// set, lets a fake Primary/Support call also drive a few tool
// invocations before returning its final Result.
type FakeClient struct {
	Responses []Result
	ToolCalls []ToolCall
	Err       error

	calls int
}

// NewFakeClient returns a FakeClient that replies with each of
// responses in turn.
func NewFakeClient(responses ...Result) *FakeClient {
	return &FakeClient{Responses: responses}
}

func (f *FakeClient) Call(ctx context.Context, endpoint Endpoint, prompt string, tools []Tool, handler ToolHandler, maxSteps int) (Result, error) {
	if f.Err != nil {
		return Result{}, f.Err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	for i, call := range f.ToolCalls {
		if i >= maxSteps || handler == nil {
			break
		}
		if _, err := handler(ctx, call); err != nil {
			return Result{}, err
		}
	}

	if f.calls >= len(f.Responses) {
		return Result{}, nil
	}
	r := f.Responses[f.calls]
	f.calls++
	return r, nil
}

// CallCount returns how many times Call has returned a scripted
// response.
func (f *FakeClient) CallCount() int { return f.calls }
