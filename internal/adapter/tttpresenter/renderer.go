package tttpresenter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/Cheese-TicTacToe-bot/internal/ttt"
)

const (
	cellSize     = 120
	boardSize    = cellSize * 3
	sideMargin   = 24
	topMargin    = 64
	bottomMargin = 24
	captionInset = 12
	markerInset  = 28
	gridStroke   = 6
	markerStroke = 12
	winStroke    = 10
)

var (
	backgroundColor = color.NRGBA{R: 28, G: 31, B: 46, A: 255}
	captionColor    = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	cellNumberColor = color.NRGBA{R: 120, G: 126, B: 150, A: 255}
)

const (
	gridHex = "#cfd3e6"
	xHex    = "#ff6b6b"
	oHex    = "#4dabf7"
	winHex  = "#ffd43b"
)

// RenderOptions carries the caption drawn above the grid.
type RenderOptions struct {
	Caption string
}

// Renderer draws the board as PNG: the grid and markers come from generated SVG, the caption
// and empty-cell numbers from a bitmap font.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

func (r *Renderer) RenderPNG(ctx context.Context, g *ttt.Game, opts RenderOptions) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("game is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	totalWidth := boardSize + sideMargin*2
	totalHeight := boardSize + topMargin + bottomMargin
	origin := image.Pt(sideMargin, topMargin)

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	board, err := rasterizeSVG(boardSVG(g), boardSize)
	if err != nil {
		return nil, err
	}
	imagedraw.Draw(img, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(boardSize, boardSize))}, board, image.Point{}, imagedraw.Over)

	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	drawCellNumbers(drawer, g.Board, origin)
	caption := strings.TrimSpace(opts.Caption)
	if caption != "" {
		captionRect := image.Rect(sideMargin, captionInset, totalWidth-sideMargin, topMargin-captionInset)
		drawCenteredString(drawer, captionRect, caption, captionColor)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// boardSVG draws the grid, the markers and, for a won game, a stroke through the winning triple.
func boardSVG(g *ttt.Game) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, boardSize, boardSize, boardSize, boardSize)
	for i := 1; i < 3; i++ {
		p := i * cellSize
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="%d" stroke-linecap="round"/>`, p, gridStroke, p, boardSize-gridStroke, gridHex, gridStroke)
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="%d" stroke-linecap="round"/>`, gridStroke, p, boardSize-gridStroke, p, gridHex, gridStroke)
	}
	for idx, m := range g.Board {
		x0, y0 := (idx%3)*cellSize, (idx/3)*cellSize
		switch m {
		case ttt.X:
			a, b := x0+markerInset, x0+cellSize-markerInset
			c, d := y0+markerInset, y0+cellSize-markerInset
			fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="%d" stroke-linecap="round"/>`, a, c, b, d, xHex, markerStroke)
			fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="%d" stroke-linecap="round"/>`, b, c, a, d, xHex, markerStroke)
		case ttt.O:
			fmt.Fprintf(&sb, `<circle cx="%d" cy="%d" r="%d" fill="none" stroke="%s" stroke-width="%d"/>`, x0+cellSize/2, y0+cellSize/2, cellSize/2-markerInset, oHex, markerStroke)
		}
	}
	if line := g.Outcome.Line; g.Outcome.Kind == ttt.OutcomeWin && len(line) == 3 {
		from, to := cellCenter(line[0]), cellCenter(line[2])
		fmt.Fprintf(&sb, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="%d" stroke-linecap="round" stroke-opacity="0.85"/>`, from.X, from.Y, to.X, to.Y, winHex, winStroke)
	}
	sb.WriteString(`</svg>`)
	return sb.String()
}

func cellCenter(idx int) image.Point {
	return image.Pt((idx%3)*cellSize+cellSize/2, (idx/3)*cellSize+cellSize/2)
}

func rasterizeSVG(svg string, size int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse board svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, imagedraw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

func drawCellNumbers(drawer *font.Drawer, b ttt.Board, origin image.Point) {
	for idx, m := range b {
		if m != ttt.Empty {
			continue
		}
		x0 := origin.X + (idx%3)*cellSize
		y0 := origin.Y + (idx/3)*cellSize
		drawCenteredString(drawer, image.Rect(x0, y0, x0+cellSize, y0+cellSize), strconv.Itoa(idx+1), cellNumberColor)
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	if drawer == nil || strings.TrimSpace(text) == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}
