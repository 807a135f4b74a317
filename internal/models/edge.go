package models

// EdgeState is a per-narrow pair of booleans about the older and newer
// edges of the locally fetched message range. The fetching tracker and the
// caught-up tracker both use this shape with different meanings.
type EdgeState struct {
	Older bool `json:"older"`
	Newer bool `json:"newer"`
}
