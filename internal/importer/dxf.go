package importer

import (
	"fmt"
	"math"
	"regexp"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/BarCut/internal/model"
)

// minPieceLength drops zero-length and stray construction entities.
const minPieceLength = 0.01

var layerNumber = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// ImportDXF imports a bar schedule drawing. Every LINE, ARC and LWPOLYLINE
// is one piece whose developed length is its geometric length (closed
// polylines such as stirrups include the closing side). The category is
// the first number in the entity's layer name: "D12", "Ø12" and "12" all
// map to "12". Lengths are in drawing units.
func ImportDXF(path string) ImportResult {
	return ImportDXFScaled(path, 1)
}

// ImportDXFScaled is ImportDXF with lengths multiplied by scale, e.g. 0.001
// for a drawing in millimetres and bars in metres.
func ImportDXFScaled(path string, scale float64) ImportResult {
	result := ImportResult{Demands: model.Demands{}}
	if scale <= 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid DXF scale %v", scale))
		return result
	}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	skippedLayers := make(map[string]bool)
	short := 0
	for _, ent := range entities {
		var length float64
		switch e := ent.(type) {
		case *entity.Line:
			length = distance(e.Start[0], e.Start[1], e.End[0], e.End[1])
		case *entity.Arc:
			length = arcLength(e)
		case *entity.LwPolyline:
			length = polylineLength(e)
		default:
			// Text, dimensions and hatches are annotation
			continue
		}

		layer := ""
		if l := ent.Layer(); l != nil {
			layer = l.Name()
		}
		key, ok := layerKey(layer)
		if !ok {
			skippedLayers[layer] = true
			continue
		}

		length = math.Round(length*scale*1000) / 1000
		if length < minPieceLength {
			short++
			continue
		}
		result.Demands.Add(key, length, 1)
		result.Rows++
	}

	for layer := range skippedLayers {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped layer %q: no diameter in layer name", layer))
	}
	if short > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped %d pieces shorter than %.2f", short, minPieceLength))
	}
	if result.Rows == 0 {
		result.Errors = append(result.Errors, "No bar pieces found in DXF file")
	}
	return result
}

// layerKey extracts the diameter category from a layer name.
func layerKey(layer string) (string, bool) {
	m := layerNumber.FindString(layer)
	if m == "" {
		return "", false
	}
	d, err := ParseNumber(m)
	if err != nil || d < 1 {
		return "", false
	}
	return DiameterKey(d), true
}

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// arcLength is radius times the swept angle, counter-clockwise from the
// start angle to the end angle.
func arcLength(a *entity.Arc) float64 {
	sweep := a.Angle[1] - a.Angle[0]
	if sweep <= 0 {
		sweep += 360
	}
	return a.Circle.Radius * sweep * math.Pi / 180
}

// polylineLength sums the sides of an LWPOLYLINE. A vertex bulge turns
// the following side into an arc; the bulge is the tangent of a quarter
// of the included angle.
func polylineLength(lw *entity.LwPolyline) float64 {
	n := len(lw.Vertices)
	if n < 2 {
		return 0
	}
	sides := n - 1
	if lw.Closed {
		sides = n
	}

	var total float64
	for i := 0; i < sides; i++ {
		p1 := lw.Vertices[i]
		p2 := lw.Vertices[(i+1)%n]
		chord := distance(p1[0], p1[1], p2[0], p2[1])

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) < 1e-9 || chord < 1e-9 {
			total += chord
			continue
		}
		theta := 4 * math.Atan(math.Abs(bulge))
		radius := chord / (2 * math.Sin(theta/2))
		total += radius * theta
	}
	return total
}
