package models

// Airport represents one reference-data airport record.
// ID is the identifier carried by the source file. It is not the record's
// position in the loaded sequence, which is what the finders return.
type Airport struct {
	Name string  `json:"name"`
	Abbr string  `json:"abbr"`
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
	ID   uint64  `json:"id"`
}
