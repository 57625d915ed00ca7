package speech

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

const defaultWordsPerMinute = 160

// PacedVoice 不发声，按语速估算朗读时长并等待
type PacedVoice struct {
	WordsPerMinute int
	Pause          time.Duration // 每句话结束后的停顿
}

// Duration 估算一段文本的朗读时长
func (v PacedVoice) Duration(text string) time.Duration {
	wpm := v.WordsPerMinute
	if wpm <= 0 {
		wpm = defaultWordsPerMinute
	}
	words := len(strings.Fields(text))
	return time.Duration(words)*time.Minute/time.Duration(wpm) + v.Pause
}

func (v PacedVoice) Say(ctx context.Context, text string) error {
	t := time.NewTimer(v.Duration(text))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CommandVoice 调用本地 TTS 命令（如 say、espeak），文本作为最后一个参数
type CommandVoice struct {
	Name string
	Args []string
}

func (v CommandVoice) Say(ctx context.Context, text string) error {
	if v.Name == "" {
		return fmt.Errorf("speech command not configured")
	}
	args := append(append([]string(nil), v.Args...), text)
	out, err := exec.CommandContext(ctx, v.Name, args...).CombinedOutput()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("%s: %w: %s", v.Name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// WriterVoice 先把文本写到 W，再交给 Next 朗读
type WriterVoice struct {
	W    io.Writer
	Next Voice
}

func (v WriterVoice) Say(ctx context.Context, text string) error {
	if _, err := fmt.Fprintf(v.W, "  %s\n", text); err != nil {
		return err
	}
	if v.Next == nil {
		return nil
	}
	return v.Next.Say(ctx, text)
}
