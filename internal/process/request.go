package process

import (
	"github.com/paulmach/orb/geojson"
)

const (
	// CRS URI sent with every request; the drawn and imported geometries
	// are always WGS84 lng/lat
	CRS84URI = "http://www.opengis.net/def/crs/EPSG/0/4326"

	// Fixed output raster size
	OutputWidth  = 512
	OutputHeight = 512

	// DefaultCollection is the data collection requested when settings do
	// not name one
	DefaultCollection = "sentinel-2-l2a"

	// PNGFormat is the output format requested from the process API
	PNGFormat = "image/png"
)

// Request is the process API payload
type Request struct {
	Input      Input  `json:"input"`
	Output     Output `json:"output"`
	Evalscript string `json:"evalscript"`
}

// Input describes the area and the data collections to draw from
type Input struct {
	Bounds Bounds     `json:"bounds"`
	Data   []DataSpec `json:"data"`
}

// Bounds carries the AOI geometry and its CRS
type Bounds struct {
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties BoundsProperties  `json:"properties"`
}

type BoundsProperties struct {
	CRS string `json:"crs"`
}

// DataSpec selects one collection with its filters
type DataSpec struct {
	Type       string     `json:"type"`
	DataFilter DataFilter `json:"dataFilter"`
}

type DataFilter struct {
	TimeRange        TimeRange `json:"timeRange"`
	MosaickingOrder  string    `json:"mosaickingOrder,omitempty"`
	MaxCloudCoverage *float64  `json:"maxCloudCoverage,omitempty"`
}

// TimeRange holds the from/to instants exactly as the caller formatted them
type TimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Output describes the raster to render
type Output struct {
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Responses []Response `json:"responses"`
}

type Response struct {
	Identifier string `json:"identifier"`
	Format     Format `json:"format"`
}

type Format struct {
	Type string `json:"type"`
}

// FetchParams are the inputs for one imagery fetch
type FetchParams struct {
	Geometry         *geojson.Geometry
	From             string // RFC3339, passed through verbatim
	To               string // RFC3339, passed through verbatim
	Evalscript       string
	Collection       string
	MosaickingOrder  string
	MaxCloudCoverage *float64
}

// BuildRequest assembles the payload for one fetch. Dates are not parsed or
// reinterpreted here; whatever instants the caller formatted go out on the
// wire unchanged.
func BuildRequest(params FetchParams) *Request {
	collection := params.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	return &Request{
		Input: Input{
			Bounds: Bounds{
				Geometry:   params.Geometry,
				Properties: BoundsProperties{CRS: CRS84URI},
			},
			Data: []DataSpec{
				{
					Type: collection,
					DataFilter: DataFilter{
						TimeRange: TimeRange{
							From: params.From,
							To:   params.To,
						},
						MosaickingOrder:  params.MosaickingOrder,
						MaxCloudCoverage: params.MaxCloudCoverage,
					},
				},
			},
		},
		Output: Output{
			Width:  OutputWidth,
			Height: OutputHeight,
			Responses: []Response{
				{
					Identifier: "default",
					Format:     Format{Type: PNGFormat},
				},
			},
		},
		Evalscript: params.Evalscript,
	}
}
