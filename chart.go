package tracker

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
)

// This file renders the portfolio series as a self-contained HTML page with
// an interactive candlestick chart: range slider plus quick range-selector
// buttons (7d, 1m, 6m, year, all).

const chartTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://cdn.plot.ly/plotly-2.32.0.min.js"></script>
</head>
<body>
<div id="chart"></div>
<script>
var trace = {
	type: 'candlestick',
	name: 'market data',
	x: {{.Dates}},
	open: {{.Open}},
	high: {{.High}},
	low: {{.Low}},
	close: {{.Close}}
};
var layout = {
	title: {text: {{.Title}}},
	yaxis: {title: {text: {{.YAxis}}}},
	xaxis: {
		rangeslider: {visible: true},
		rangeselector: {buttons: [
			{count: 7, label: '7d', step: 'day', stepmode: 'backward'},
			{count: 30, label: '1m', step: 'day', stepmode: 'backward'},
			{count: 182, label: '6m', step: 'day', stepmode: 'backward'},
			{count: 365, label: 'year', step: 'day', stepmode: 'backward'},
			{step: 'all'}
		]}
	}
};
Plotly.newPlot('chart', [trace], layout);
</script>
</body>
</html>
`

var chartPage = template.Must(template.New("chart").Parse(chartTemplate))

// chartSeries is the template payload: the series pre-encoded as JSON arrays.
type chartSeries struct {
	Title string
	YAxis string
	Dates template.JS
	Open  template.JS
	High  template.JS
	Low   template.JS
	Close template.JS
}

// RenderChart writes an HTML candlestick view of the portfolio series.
// The rendered series has exactly one point per input row. Prices are
// emitted as strings so decimal precision survives the round trip.
func RenderChart(w io.Writer, days []PortfolioDay, quote Ticker) error {
	dates := make([]string, len(days))
	open := make([]string, len(days))
	high := make([]string, len(days))
	low := make([]string, len(days))
	closes := make([]string, len(days))
	for i, day := range days {
		dates[i] = day.Date.String()
		open[i] = day.Open.String()
		high[i] = day.High.String()
		low[i] = day.Low.String()
		closes[i] = day.Close.String()
	}

	var encodeErr error
	encode := func(v []string) template.JS {
		b, err := json.Marshal(v)
		if err != nil && encodeErr == nil {
			encodeErr = err
		}
		return template.JS(b)
	}

	page := chartSeries{
		Title: "Portfolio Balance",
		YAxis: fmt.Sprintf("Balance (%s)", quote),
		Dates: encode(dates),
		Open:  encode(open),
		High:  encode(high),
		Low:   encode(low),
		Close: encode(closes),
	}
	if encodeErr != nil {
		return fmt.Errorf("cannot encode chart data: %w", encodeErr)
	}
	return chartPage.Execute(w, page)
}
