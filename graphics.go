package main

import (
	"bytes"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

// Global font source for overlays and error placeholders
var globalFontSource *text.GoTextFaceSource

// InitGraphics initializes the global font source for text rendering
func InitGraphics() error {
	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return err
	}
	globalFontSource = s
	return nil
}

// newFace returns a face of the global font at size
func newFace(size float64) *text.GoTextFace {
	return &text.GoTextFace{Source: globalFontSource, Size: size}
}

// DrawText draws text with specified position and color
func DrawText(screen *ebiten.Image, textString string, font *text.GoTextFace, x, y float64, textColor color.RGBA) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, textString, font, op)
}

// DrawFilledRect draws filled rectangles with float64 coordinates
func DrawFilledRect(screen *ebiten.Image, x, y, w, h float64, bgColor color.RGBA) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), bgColor, false)
}

// truncateText shortens s to fit roughly width pixels of 20px text
func truncateText(s string, width int) string {
	maxChars := (width - 20) / 10 // Rough estimate: 10px per character
	if maxChars < 4 {
		return ""
	}
	if r := []rune(s); len(r) > maxChars {
		return string(r[:maxChars-3]) + "..."
	}
	return s
}

// CreateErrorImage creates an error placeholder for a page that failed to render
func CreateErrorImage(width, height int, label, errorMsg string) *ebiten.Image {
	// Default size if not specified
	if width <= 0 || height <= 0 {
		width, height = 400, 300
	}

	errorImg := ebiten.NewImage(width, height)
	errorImg.Fill(color.RGBA{120, 30, 30, 255}) // Dark red background

	// Draw white border
	white := color.RGBA{255, 255, 255, 255}
	DrawFilledRect(errorImg, 0, 0, float64(width), 3, white)
	DrawFilledRect(errorImg, 0, float64(height-3), float64(width), 3, white)
	DrawFilledRect(errorImg, 0, 0, 3, float64(height), white)
	DrawFilledRect(errorImg, float64(width-3), 0, 3, float64(height), white)

	// Without a font only the frame is drawn
	if globalFontSource == nil {
		return errorImg
	}

	errorFont := newFace(20.0)
	DrawText(errorImg, "ERROR", errorFont, 10, 30, white)
	DrawText(errorImg, truncateText(label, width), errorFont, 10, 60, white)
	DrawText(errorImg, truncateText("Reason: "+errorMsg, width), errorFont, 10, 90, white)

	return errorImg
}
