package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Skryldev/image-filter/core"
	apperrors "github.com/Skryldev/image-filter/errors"
)

// parseColor reads "r,g,b" or "r,g,b,a".  Alpha defaults to 255.
func parseColor(s string) (core.Color, error) {
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string { return strings.TrimSpace(p) })
	if len(parts) != 3 && len(parts) != 4 {
		return core.Color{}, fmt.Errorf("color %q: want r,g,b[,a]", s)
	}
	if len(parts) == 3 {
		parts = append(parts, "255")
	}
	var ch [4]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return core.Color{}, fmt.Errorf("color %q: %w", s, err)
		}
		ch[i] = uint8(v)
	}
	return core.NewColor(ch[0], ch[1], ch[2], ch[3]), nil
}

func parseColorOr(s string, def core.Color) (core.Color, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return parseColor(s)
}

// parseColors reads a ";"-separated color list.  An empty list is reported
// with NoColorInput, the same way the filter reports it.
func parseColors(s string) ([]core.Color, error) {
	items := lo.Compact(lo.Map(strings.Split(s, ";"), func(p string, _ int) string { return strings.TrimSpace(p) }))
	if len(items) == 0 {
		return nil, apperrors.New(apperrors.NoColorInput, "cli.colors", nil)
	}
	colors := make([]core.Color, 0, len(items))
	for _, item := range items {
		c, err := parseColor(item)
		if err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	return colors, nil
}
