// Package aitest provides a scripted chat model for tests.
package aitest

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrStreamUnsupported is returned by FakeModel.Stream.
var ErrStreamUnsupported = errors.New("aitest: streaming not supported")

// Call records one Generate invocation.
type Call struct {
	Messages []*schema.Message
	Options  *model.Options
}

// FakeModel answers Generate with scripted replies and records calls.
// When Block is set, Generate waits for the context to end.
type FakeModel struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call
	Block   bool
}

// Reply is one scripted Generate result.
type Reply struct {
	Message *schema.Message
	Err     error
}

// NewFakeModel returns a model that answers with the given replies in
// order, repeating the last one once the script runs out.
func NewFakeModel(replies ...Reply) *FakeModel {
	return &FakeModel{replies: replies}
}

// Text is a convenience Reply carrying assistant content.
func Text(content string) Reply {
	return Reply{Message: schema.AssistantMessage(content, nil)}
}

// Fail is a convenience Reply carrying an error.
func Fail(err error) Reply {
	return Reply{Err: err}
}

func (f *FakeModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{
		Messages: append([]*schema.Message(nil), input...),
		Options:  model.GetCommonOptions(&model.Options{}, opts...),
	})
	idx := len(f.calls) - 1
	var reply Reply
	if len(f.replies) > 0 {
		if idx >= len(f.replies) {
			idx = len(f.replies) - 1
		}
		reply = f.replies[idx]
	}
	block := f.Block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return reply.Message, reply.Err
}

func (f *FakeModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, ErrStreamUnsupported
}

// Calls returns the recorded invocations.
func (f *FakeModel) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many times Generate ran.
func (f *FakeModel) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
