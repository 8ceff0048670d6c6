package company

// Info is the company metadata interpolated into the analysis prompt.
type Info struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
}

// Listing is one entry of the regulator's ticker directory.
type Listing struct {
	CIK    string `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Info returns the prompt metadata for a listing; the industry comes from the
// company profile, not the directory, so it is left empty.
func (l Listing) Info() Info {
	return Info{Name: l.Title}
}
