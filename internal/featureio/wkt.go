package featureio

import (
	"bufio"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// maxWKTLine bounds a single WKT record.
const maxWKTLine = 16 << 20

// ReadWKT decodes one WKT geometry per line. Blank lines and lines starting
// with '#' are skipped.
func ReadWKT(r io.Reader) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxWKTLine)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		g, err := wkt.Unmarshal(text)
		if err != nil {
			return nil, eris.Wrapf(err, "featureio: wkt line %d", line)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   g,
			Properties: map[string]any{"line": line},
		})
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "featureio: scan wkt")
	}
	return fc, nil
}
