package tools

import (
	"context"
	"encoding/json"
	"errors"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"storysketch/internal/model"
	"storysketch/internal/service"
)

type ImageEditTool struct {
	editor service.ImageEditor
}

type ImageEditArgs struct {
	Image       string `json:"image"` // base64，为空时从空白画布开始
	Instruction string `json:"instruction"`
}

type ImageEditResp struct {
	Image string `json:"image"`
}

func NewImageEditTool(editor service.ImageEditor) *ImageEditTool {
	return &ImageEditTool{editor: editor}
}

func (t *ImageEditTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	params := map[string]*schema.ParameterInfo{
		"instruction": {Type: schema.String, Required: true, Desc: "图片编辑指令"},
		"image":       {Type: schema.String, Required: false, Desc: "待编辑图片的base64，缺省为空白画布"},
	}
	return &schema.ToolInfo{
		Name:        "image_edit",
		Desc:        "按指令编辑一张图片并返回新图片",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}, nil
}

func (t *ImageEditTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	var args ImageEditArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", err
	}
	if args.Instruction == "" {
		return "", errors.New("instruction required")
	}
	if args.Image == "" {
		args.Image = model.BlankCanvas()
	}
	img, err := t.editor.EditImage(ctx, args.Image, args.Instruction)
	if err != nil {
		return "", err
	}
	if img == "" {
		return "", model.ErrNoImage
	}
	b, err := json.Marshal(ImageEditResp{Image: img})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var _ einotool.InvokableTool = (*ImageEditTool)(nil)
