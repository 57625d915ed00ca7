package speech

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// blockingVoice 一直等到 ctx 取消
type blockingVoice struct {
	started chan string
}

func (v *blockingVoice) Say(ctx context.Context, text string) error {
	v.started <- text
	<-ctx.Done()
	return errors.New("interrupted")
}

func TestEngine_NewUtteranceCancelsPrior(t *testing.T) {
	voice := &blockingVoice{started: make(chan string, 2)}
	e := NewEngine(voice, nil)

	firstDone := make(chan error, 1)
	go func() { firstDone <- e.Speak(context.Background(), "first") }()
	require.Equal(t, "first", <-voice.started)

	secondDone := make(chan error, 1)
	go func() { secondDone <- e.Speak(context.Background(), "second") }()
	require.Equal(t, "second", <-voice.started)

	assert.ErrorIs(t, <-firstDone, context.Canceled)

	e.Cancel()
	assert.ErrorIs(t, <-secondDone, context.Canceled)
}

func TestEngine_CancelledContextDoesNotInterrupt(t *testing.T) {
	voice := &blockingVoice{started: make(chan string, 1)}
	e := NewEngine(voice, nil)

	done := make(chan error, 1)
	go func() { done <- e.Speak(context.Background(), "current") }()
	require.Equal(t, "current", <-voice.started)

	stale, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.Speak(stale, "stale"), context.Canceled)

	select {
	case err := <-done:
		t.Fatalf("current utterance interrupted: %v", err)
	default:
	}

	e.Cancel()
	assert.Error(t, <-done)
}

func TestEngine_CancelWhenIdle(t *testing.T) {
	e := NewEngine(PacedVoice{WordsPerMinute: 6000}, nil)
	e.Cancel()
	e.Cancel()
	require.NoError(t, e.Speak(context.Background(), "short line"))
}

func TestPacedVoice_Duration(t *testing.T) {
	v := PacedVoice{WordsPerMinute: 60, Pause: 100 * time.Millisecond}
	assert.Equal(t, 3*time.Second+100*time.Millisecond, v.Duration("one two three"))
	assert.Equal(t, time.Duration(0), PacedVoice{}.Duration(""))
}

func TestPacedVoice_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := PacedVoice{WordsPerMinute: 1}.Say(ctx, "a very long sentence")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriterVoice(t *testing.T) {
	var buf bytes.Buffer
	v := WriterVoice{W: &buf}
	require.NoError(t, v.Say(context.Background(), "The fox smiled."))
	assert.Equal(t, "  The fox smiled.\n", buf.String())
}

func TestCommandVoice_NotConfigured(t *testing.T) {
	assert.Error(t, CommandVoice{}.Say(context.Background(), "hi"))
}
