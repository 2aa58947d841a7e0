package api

import (
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/vehicle.count/internal/httputil"
)

// showCharts renders a quick HTML dashboard (go-echarts) of the hourly count
// history and the class breakdown of currently tracked objects. This is a
// lightweight alternative to the static dashboard for debugging without
// loading the frontend.
func (s *Server) showCharts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	hourly := s.monitor.Hourly()
	xAxis := make([]string, 0, len(hourly))
	totals := make([]opts.BarData, 0, len(hourly))
	for _, h := range hourly {
		xAxis = append(xAxis, h.HourStart.Format("15:04"))
		totals = append(totals, opts.BarData{Value: h.Total})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Vehicles counted per hour",
			Subtitle: fmt.Sprintf("total since reset: %d", s.monitor.Total()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xAxis).AddSeries("vehicles", totals)

	stats := s.monitor.Engine().CountByClass()
	pieData := make([]opts.PieData, 0, len(stats))
	for class, stat := range stats {
		pieData = append(pieData, opts.PieData{Name: class, Value: stat.Count})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Currently tracked by class"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pie.AddSeries("classes", pieData)

	page := components.NewPage()
	page.SetPageTitle("vehicle.count charts")
	page.AddCharts(bar, pie)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render charts: %v", err))
	}
}
