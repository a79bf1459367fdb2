package visualization

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/giacrava/sbp-adoption-abm/internal/dataset"
)

// BuildFeatureCollection assembles a GeoJSON FeatureCollection carrying the
// cumulative adopted hectares and a fill color per municipality.
func BuildFeatureCollection(munics []dataset.Municipality, cumulativeHa map[string]float64) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, m := range munics {
		ha := cumulativeHa[m.Name]
		fill, err := Picnic.Interpolate(NormalizeHa(ha))
		if err != nil {
			return nil, err
		}

		feat := geojson.NewFeature(m.Geometry)
		feat.Properties["CCA_2"] = m.Code
		feat.Properties["Municipality"] = m.Name
		feat.Properties["District"] = m.District
		feat.Properties["cumulative_ha"] = ha
		feat.Properties["fill"] = fill
		fc.Append(feat)
	}
	return fc, nil
}

// RenderSVG draws the feature collection as an SVG choropleth using a plain
// equirectangular projection fitted to the collection's bounds.
func RenderSVG(fc *geojson.FeatureCollection, width, height int) (string, error) {
	if len(fc.Features) == 0 {
		return "", fmt.Errorf("no features to render")
	}

	bound := fc.Features[0].Geometry.Bound()
	for _, feat := range fc.Features[1:] {
		bound = bound.Union(feat.Geometry.Bound())
	}
	if bound.Max.X() == bound.Min.X() || bound.Max.Y() == bound.Min.Y() {
		return "", fmt.Errorf("degenerate bounds %v", bound)
	}

	sx := float64(width) / (bound.Max.X() - bound.Min.X())
	sy := float64(height) / (bound.Max.Y() - bound.Min.Y())
	project := func(p orb.Point) (float64, float64) {
		// SVG y grows downward.
		return (p.X() - bound.Min.X()) * sx, float64(height) - (p.Y()-bound.Min.Y())*sy
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		width, height, width, height)
	b.WriteString("\n")

	for _, feat := range fc.Features {
		fill, _ := feat.Properties["fill"].(string)
		name, _ := feat.Properties["Municipality"].(string)

		var polys []orb.Polygon
		switch g := feat.Geometry.(type) {
		case orb.Polygon:
			polys = []orb.Polygon{g}
		case orb.MultiPolygon:
			polys = g
		default:
			return "", fmt.Errorf("municipality %s: unsupported geometry %T", name, feat.Geometry)
		}

		var path strings.Builder
		for _, poly := range polys {
			for _, ring := range poly {
				for i, pt := range ring {
					x, y := project(pt)
					if i == 0 {
						fmt.Fprintf(&path, "M%.2f,%.2f", x, y)
					} else {
						fmt.Fprintf(&path, "L%.2f,%.2f", x, y)
					}
				}
				path.WriteString("Z")
			}
		}

		fmt.Fprintf(&b, `<path d="%s" fill="%s" stroke="#555" stroke-width="0.4"><title>%s: %.1f ha</title></path>`,
			path.String(), fill, template.HTMLEscapeString(name), feat.Properties["cumulative_ha"])
		b.WriteString("\n")
	}

	b.WriteString("</svg>")
	return b.String(), nil
}

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>SBP adoption</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 2em; }
#controls { margin-bottom: 1em; }
button { font-size: 1em; padding: 0.3em 1em; }
table { border-collapse: collapse; margin-top: 1em; }
td, th { border: 1px solid #ccc; padding: 0.2em 0.8em; text-align: right; }
</style>
</head>
<body>
<h1>SBP adoption</h1>
<div id="controls">
  <span>Year passed: <b>{{.YearPassed}}</b></span>
  <button id="step" {{if .Done}}disabled{{end}}>Simulate next year</button>
</div>
{{.SVG}}
<table>
<tr><th>Year</th><th>Yearly area of SBP sown [ha/y]</th><th>Cumulative area of SBP sown [ha]</th></tr>
{{range .Records}}<tr><td>{{.Year}}</td><td>{{printf "%.1f" .YearlyHa}}</td><td>{{printf "%.1f" .CumulativeHa}}</td></tr>
{{end}}</table>
<script>
document.getElementById("step").addEventListener("click", function () {
  fetch("/api/step", {method: "POST"}).then(function (resp) {
    if (!resp.ok) { throw new Error("step failed: " + resp.status); }
    return resp.json();
  }).then(function () { location.reload(); });
});
</script>
</body>
</html>
`))

// pageData feeds the HTML template.
type pageData struct {
	YearPassed int
	Done       bool
	SVG        template.HTML
	Records    []recordRow
}

type recordRow struct {
	Year         int
	YearlyHa     float64
	CumulativeHa float64
}
