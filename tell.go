package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"storysketch/internal/model"
	"storysketch/internal/service"
	"storysketch/internal/speech"
)

func newTellCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "tell <story idea>",
		Short: "在终端生成并朗读一个故事",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTell(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), outDir)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "保存每一步插画和故事计划的目录")
	return cmd
}

func runTell(ctx context.Context, w io.Writer, prompt, outDir string) error {
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	caps, err := buildCapabilities(ctx, cfg)
	if err != nil {
		return err
	}
	voice := speech.WriterVoice{W: w, Next: newVoice(cfg)}
	o := caps.newOrchestrator(voice, logrus.WithField("component", "tell"))

	updates, unsubscribe := o.Subscribe()
	defer unsubscribe()

	if err := o.Submit(prompt); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return errors.New(verr.Message())
		}
		return err
	}

	done := make(chan struct{})
	go func() {
		o.Wait()
		close(done)
	}()

	interrupted := followProgress(w, updates, done, ctx.Done(), o.Reset)

	if interrupted {
		return errors.New("已取消")
	}
	final := o.State()
	if final.Error != "" {
		return errors.New(final.Error)
	}
	if outDir != "" {
		if err := saveStory(outDir, final); err != nil {
			return err
		}
		fmt.Fprintf(w, "插画已保存到 %s\n", outDir)
	}
	return nil
}

// followProgress 打印进度直到 done 关闭，之后把已排队的状态打印完；sig 触发时调用 reset。
// 返回是否被中断。
func followProgress(w io.Writer, updates <-chan model.Snapshot, done, sig <-chan struct{}, reset func()) bool {
	var prev model.Snapshot
	interrupted := false
	for {
		select {
		case snap := <-updates:
			printProgress(w, prev, snap)
			prev = snap
		case <-sig:
			interrupted = true
			sig = nil
			reset()
		case <-done:
			for {
				select {
				case snap := <-updates:
					printProgress(w, prev, snap)
					prev = snap
				default:
					return interrupted
				}
			}
		}
	}
}

func printProgress(w io.Writer, prev, snap model.Snapshot) {
	if snap.Phase != prev.Phase {
		switch snap.Phase {
		case model.PhasePlanningStory:
			fmt.Fprintf(w, "正在构思故事：%s\n", snap.Prompt)
		case model.PhaseGeneratingIllustrations:
			fmt.Fprintf(w, "故事共 %d 步，开始绘制插画\n", len(snap.Steps))
		case model.PhasePlaying:
			fmt.Fprintln(w, "开始播放")
		}
	}
	if snap.Phase == model.PhaseGeneratingIllustrations && snap.IllustratedSteps > prev.IllustratedSteps {
		fmt.Fprintf(w, "  插画 %d/%d\n", snap.IllustratedSteps, len(snap.Steps))
	}
}

// saveStory 写出每一步的插画和去掉图片的故事计划
func saveStory(dir string, snap model.Snapshot) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	for i, st := range snap.Steps {
		if st.ImageSnapshot == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(st.ImageSnapshot)
		if err != nil {
			return fmt.Errorf("decode image for step %d: %w", i+1, err)
		}
		name := fmt.Sprintf("step-%02d%s", i+1, imageExt(data))
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	plan, err := json.MarshalIndent(snap.Compact().Steps, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "plan.json"), plan, 0644)
}

func imageExt(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
