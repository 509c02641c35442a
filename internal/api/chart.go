package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"hrzones/internal/service"
)

// zoneChart builds a doughnut of seconds per zone using the zone colours
func zoneChart(report *service.ZoneReport) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Heart rate zones"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Time in heart rate zones",
			Subtitle: fmt.Sprintf("%s, %d activities", report.Period.Label, report.ActivityCount),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "item",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Bottom: "bottom",
		}),
	)

	items := make([]opts.PieData, 0, len(report.Zones))
	for _, z := range report.Zones {
		items = append(items, opts.PieData{
			Name:      fmt.Sprintf("%s (%d-%d bpm)", z.Zone.Name, z.Zone.Min, z.Zone.Max),
			Value:     z.Seconds,
			ItemStyle: &opts.ItemStyle{Color: z.Zone.Color},
		})
	}

	pie.AddSeries("seconds", items,
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
	)
	return pie
}

func (h *Handler) getZoneChart(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_period", err.Error())
		return
	}

	report, err := h.pipeline.Run(r.Context(), period)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := zoneChart(report).Render(&buf); err != nil {
		h.logger.Error("rendering zone chart", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "rendering chart failed")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
