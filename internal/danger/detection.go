package danger

// Detection рамка человека от детектора и уверенность в [0,1]
type Detection struct {
	Box        BBox    `json:"box"`
	Confidence float64 `json:"confidence"`
}
