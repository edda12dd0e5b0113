package batch

// Progress is one snapshot of a running batch: how many of the total
// input files have been dispatched so far, and where output is landing.
type Progress struct {
	Index     int
	Total     int
	OutputDir string
}
