package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/bpmnlayout/pkg/bpmn"
	"github.com/matzehuels/bpmnlayout/pkg/render"
)

// Render generates output artifacts of a laid-out model in the requested
// formats. The SVG is rendered at most once and reused for PDF conversion.
func Render(ctx context.Context, m *bpmn.Model, opts Options) (map[string][]byte, error) {
	dot := render.ToDOT(m, render.Options{Detailed: opts.Detailed, WrapWidth: opts.LabelWrapWidth})

	var svg []byte
	svgOnce := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = render.RenderSVG(ctx, dot)
		return svg, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = svgOnce()
		case FormatPDF:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPDF(data)
			}
		case FormatPNG:
			data, err = render.RenderPNG(ctx, dot)
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
