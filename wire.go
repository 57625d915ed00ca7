package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"storysketch/internal/config"
	"storysketch/internal/gemini"
	"storysketch/internal/service"
	"storysketch/internal/speech"
	"storysketch/internal/volc"
)

// capabilities 编排器依赖的两项模型能力
type capabilities struct {
	planner service.Planner
	editor  service.ImageEditor
}

func buildCapabilities(ctx context.Context, cfg *config.Config) (*capabilities, error) {
	var caps capabilities

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			PlanModel:   cfg.Gemini.PlanModel,
			ImageModel:  cfg.Gemini.ImageModel,
			Temperature: cfg.Gemini.Temperature,
			Steps:       cfg.Story.StepCount,
		})
		if err != nil {
			return nil, err
		}
		caps.planner, caps.editor = client, client
	case config.ProviderArk, config.ProviderMock:
		ark := volc.NewArkClient(volc.Options{
			BaseURL: cfg.Ark.BaseURL,
			APIKey:  cfg.Ark.APIKey,
			Timeout: cfg.GetArkTimeout(),
			Mock:    cfg.Ark.Mock || cfg.Provider == config.ProviderMock,
		})
		planner, err := volc.NewStoryPlanner(ctx, ark, volc.PlannerConfig{
			Model:  cfg.Ark.ChatModel,
			Region: cfg.Ark.Region,
			Steps:  cfg.Story.StepCount,
		})
		if err != nil {
			return nil, err
		}
		caps.planner = planner
		caps.editor = volc.NewImageEditor(ark, cfg.Ark.ImageModel, cfg.Ark.ImageSize)
	default:
		return nil, fmt.Errorf("invalid provider: %s", cfg.Provider)
	}

	if interval := cfg.GetEditInterval(); interval > 0 {
		caps.editor = service.NewRateLimitedEditor(caps.editor, interval, cfg.Story.EditBurst)
	}
	logrus.WithFields(logrus.Fields{
		"provider":      cfg.Provider,
		"steps":         cfg.Story.StepCount,
		"edit_interval": cfg.GetEditInterval().String(),
	}).Info("模型能力初始化完成")
	return &caps, nil
}

func newVoice(cfg *config.Config) speech.Voice {
	if cfg.Speech.Engine == "command" {
		return speech.CommandVoice{Name: cfg.Speech.Command, Args: cfg.Speech.Args}
	}
	return speech.PacedVoice{WordsPerMinute: cfg.Speech.WordsPerMinute, Pause: cfg.GetSpeechPause()}
}

// newOrchestrator 每个编排器持有自己的朗读引擎
func (c *capabilities) newOrchestrator(voice speech.Voice, log *logrus.Entry) *service.Orchestrator {
	return service.NewOrchestrator(c.planner, c.editor, speech.NewEngine(voice, log), log)
}
