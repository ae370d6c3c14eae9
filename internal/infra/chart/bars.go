package chart

import (
	"bytes"
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// BarRenderer рисует воронку столбцами в PNG.
type BarRenderer struct {
	Width    int
	Height   int
	BarWidth int
}

func NewBarRenderer() *BarRenderer {
	return &BarRenderer{Width: 1400, Height: 600, BarWidth: 56}
}

func (r *BarRenderer) RenderBars(labels []string, values []int) ([]byte, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("chart: %d labels for %d values", len(labels), len(values))
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("chart: no data")
	}
	bars := make([]gochart.Value, 0, len(values))
	maxVal := 0
	for i, v := range values {
		maxVal = max(maxVal, v)
		bars = append(bars, gochart.Value{Value: float64(v), Label: labels[i]})
	}
	// при одних нулях go-chart падает на пустом диапазоне
	yMax := float64(maxVal)
	if yMax <= 0 {
		yMax = 1
	}
	graph := gochart.BarChart{
		Width:    r.Width,
		Height:   r.Height,
		BarWidth: r.BarWidth,
		Background: gochart.Style{Padding: gochart.Box{
			Top:   50,
			Left:  16,
			Right: 16,
		}},
		YAxis: gochart.YAxis{Range: &gochart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}
	buf := bytes.NewBuffer(nil)
	if err := graph.Render(gochart.PNG, buf); err != nil {
		return nil, fmt.Errorf("chart: render: %w", err)
	}
	return buf.Bytes(), nil
}
