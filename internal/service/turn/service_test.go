package turn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/yoda-bot/backend/internal/analysis/emotion"
	"github.com/zhouzirui/yoda-bot/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/yoda-bot/backend/internal/service/chat"
)

type fakeResponder struct {
	readyErr error
	err      error
	reply    string
	inputs   []string
}

func (f *fakeResponder) Ready(context.Context) error { return f.readyErr }

func (f *fakeResponder) Respond(_ context.Context, text string) (string, error) {
	f.inputs = append(f.inputs, text)
	return f.reply, f.err
}

type fixedDetector map[string]float64

func (d fixedDetector) Detect(_ context.Context, text string) emotion.Reading {
	return emotion.Classify(d[text])
}

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) Classified(r emotion.Reading) { o.events = append(o.events, "emotion:"+string(r.Label)) }
func (o *recordingObserver) Thinking() { o.events = append(o.events, "thinking") }

func newSession(t *testing.T) (*chatservice.Service, string) {
	t.Helper()
	sessions := chatservice.NewService()
	session, err := sessions.CreateSession(context.Background(), "yoda")
	require.NoError(t, err)
	return sessions, session.ID
}

func TestSubmitRecordsTurn(t *testing.T) {
	sessions, id := newSession(t)
	responder := &fakeResponder{reply: "The force is strong"}
	svc := NewService(sessions, responder, fixedDetector{"I love it": 0.64}, Options{})

	turn, err := svc.Submit(context.Background(), id, "I love it")
	require.NoError(t, err)

	assert.Equal(t, "I love it", turn.User.Content)
	assert.Equal(t, chat.RoleUser, turn.User.Role)
	assert.Equal(t, "Is strong, the force, hmmm.", turn.Reply.Content)
	assert.Equal(t, chat.RoleAssistant, turn.Reply.Role)
	assert.Equal(t, emotion.Reading{Label: emotion.Positive, Score: 0.64}, turn.UserEmotion)
	assert.Equal(t, emotion.Placeholder(), turn.ReplyEmotion)
	assert.Equal(t, "The force is strong", turn.Raw)
	assert.Equal(t, []string{"I love it"}, responder.inputs)

	transcript, err := sessions.Transcript(context.Background(), id)
	require.NoError(t, err)
	want := []chat.Entry{
		{Message: chat.Message{Role: chat.RoleUser, Content: "I love it"}, Emotion: turn.UserEmotion},
		{Message: chat.Message{Role: chat.RoleAssistant, Content: "Is strong, the force, hmmm."}, Emotion: emotion.Placeholder()},
	}
	if diff := cmp.Diff(want, transcript, cmpopts.IgnoreFields(chat.Message{}, "ID", "CreatedAt")); diff != "" {
		t.Fatalf("transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitNTurnsKeepsEvenLog(t *testing.T) {
	sessions, id := newSession(t)
	svc := NewService(sessions, &fakeResponder{reply: "Yes"}, fixedDetector{}, Options{})

	const turns = 5
	for range turns {
		_, err := svc.Submit(context.Background(), id, "hello there")
		require.NoError(t, err)
	}

	conversation, err := sessions.Log(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2*turns, conversation.Len())

	i := 0
	for msg := range conversation.All() {
		assert.Equal(t, chat.RoleAt(i), msg.Role)
		i++
	}
}

func TestSubmitNoOps(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		responder *fakeResponder
		wantErr   error
	}{
		{name: "empty", input: "", responder: &fakeResponder{reply: "x"}, wantErr: ErrEmptyInput},
		{name: "whitespace", input: "  \t ", responder: &fakeResponder{reply: "x"}, wantErr: ErrEmptyInput},
		{name: "generator missing", input: "hi", responder: &fakeResponder{readyErr: errors.New("no checkpoint")}, wantErr: ErrGeneratorUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions, id := newSession(t)
			svc := NewService(sessions, tt.responder, fixedDetector{}, Options{})

			_, err := svc.Submit(context.Background(), id, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, tt.responder.inputs)

			conversation, err := sessions.Log(context.Background(), id)
			require.NoError(t, err)
			assert.Zero(t, conversation.Len())
			_, ok := conversation.LatestReading()
			assert.False(t, ok)
		})
	}
}

func TestSubmitGenerationFailureLeavesLogUnchanged(t *testing.T) {
	sessions, id := newSession(t)
	svc := NewService(sessions, &fakeResponder{err: errors.New("backend down")}, fixedDetector{}, Options{})

	_, err := svc.Submit(context.Background(), id, "hello")
	require.Error(t, err)

	conversation, err := sessions.Log(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, conversation.Len())
}

func TestSubmitUnknownSession(t *testing.T) {
	svc := NewService(chatservice.NewService(), &fakeResponder{}, fixedDetector{}, Options{})
	_, err := svc.Submit(context.Background(), "missing", "hello")
	assert.ErrorIs(t, err, chatservice.ErrSessionNotFound)
}

func TestSubmitScoresRepliesWhenEnabled(t *testing.T) {
	sessions, id := newSession(t)
	detector := fixedDetector{"Is sad, this day, hmmm.": -0.5}
	svc := NewService(sessions, &fakeResponder{reply: "This day is sad"}, detector, Options{ScoreReplies: true})

	turn, err := svc.Submit(context.Background(), id, "hello")
	require.NoError(t, err)
	assert.Equal(t, emotion.Negative, turn.ReplyEmotion.Label)

	conversation, err := sessions.Log(context.Background(), id)
	require.NoError(t, err)
	latest, ok := conversation.LatestReading()
	require.True(t, ok)
	assert.Equal(t, turn.ReplyEmotion, latest)
}

func TestSubmitThinkDelayHonoursContext(t *testing.T) {
	sessions, id := newSession(t)
	responder := &fakeResponder{reply: "Soon"}
	svc := NewService(sessions, responder, fixedDetector{}, Options{ThinkDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Submit(ctx, id, "hello")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, responder.inputs)
}

func TestSubmitObservedReportsProgress(t *testing.T) {
	sessions, id := newSession(t)
	svc := NewService(sessions, &fakeResponder{reply: "ok"}, fixedDetector{"bad": -0.4}, Options{})

	obs := &recordingObserver{}
	_, err := svc.SubmitObserved(context.Background(), id, "bad", obs)
	require.NoError(t, err)
	assert.Equal(t, []string{"emotion:negative", "thinking"}, obs.events)
}
