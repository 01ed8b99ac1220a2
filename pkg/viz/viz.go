// Package viz maps spec component types to Metabase display types and
// derives per-type visualization settings.
package viz

import "github.com/dashforge/dashforge/pkg/spec"

// displayTypes is the closed mapping from spec component types to Metabase
// display types. Anything not listed renders as a table.
var displayTypes = map[string]string{
	"metric_card":             "scalar",
	"metric_card_with_status": "scalar",
	"area_chart":              "area",
	"line_chart":              "line",
	"bar_chart":               "bar",
	"horizontal_funnel":       "funnel",
	"donut_chart":             "pie",
	"choropleth_map":          "map",
	"data_table":              "table",
}

// MapDisplayType returns the Metabase display type for a spec component
// type. Unrecognized types fall back to "table".
func MapDisplayType(specType string) string {
	if display, ok := displayTypes[specType]; ok {
		return display
	}
	return "table"
}

// BuildSettings derives Metabase visualization settings from a component's
// type and configuration. Types with no special handling get an empty
// settings object and the backend's default rendering.
func BuildSettings(componentType string, config *spec.ComponentConfig) map[string]interface{} {
	if config == nil {
		config = &spec.ComponentConfig{}
	}

	settings := map[string]interface{}{}

	switch componentType {
	case "metric_card", "metric_card_with_status":
		settings["scalar.field"] = "value"
		switch config.Format {
		case "percentage":
			settings["number_style"] = "percent"
		case "number_abbreviated":
			settings["number_style"] = "compact"
		}

	case "data_table":
		columns := make([]map[string]interface{}, 0, len(config.Columns))
		for _, column := range config.Columns {
			columns = append(columns, map[string]interface{}{
				"name":    column.Field,
				"enabled": true,
			})
		}
		settings["table.columns"] = columns

	case "area_chart", "line_chart", "bar_chart":
		if config.XAxis != nil {
			settings["graph.x_axis.title_text"] = config.XAxis.Label
		}
		if config.YAxis != nil {
			settings["graph.y_axis.title_text"] = config.YAxis.Label
		}

	case "donut_chart":
		settings["pie.show_legend"] = boolOr(config.ShowLegend, true)
		settings["pie.show_total"] = boolOr(config.ShowCenterTotal, true)
	}

	return settings
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
