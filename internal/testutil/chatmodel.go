// Package testutil holds doubles shared by package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel is a scripted eino chat model. It replies with Reply (or fails
// with Err) and records every conversation it was given.
type ChatModel struct {
	Reply string
	Err   error

	mu     sync.Mutex
	inputs [][]*schema.Message
}

var _ model.ChatModel = (*ChatModel)(nil)

func (m *ChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, input)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return schema.AssistantMessage(m.Reply, nil), nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *ChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

// Inputs returns the conversations passed to Generate so far.
func (m *ChatModel) Inputs() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.inputs...)
}
