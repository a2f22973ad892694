package linkmeta

import "time"

// Status is the tri-state outcome of a metadata resolution. Failures are
// data, not errors: Resolve never propagates an exception to its caller.
type Status string

const (
	// StatusSuccess means title plus description or image were extracted.
	StatusSuccess Status = "success"
	// StatusPartial means at least one field was extracted but not enough
	// for success.
	StatusPartial Status = "partial"
	// StatusFailed means a network error, a non-2xx response, a timeout,
	// or no usable fields at all.
	StatusFailed Status = "failed"
)

// Metadata is the resolved preview for one URL. Fields other than URL and
// Status are populated only as far as extraction got; a failed result carries
// nothing but the input URL and the error description.
type Metadata struct {
	URL          string    `json:"url"`
	Status       Status    `json:"status"`
	Title        string    `json:"title,omitempty"`
	Description  string    `json:"description,omitempty"`
	Image        string    `json:"image,omitempty"`
	Favicon      string    `json:"favicon,omitempty"`
	SiteName     string    `json:"site_name,omitempty"`
	Domain       string    `json:"domain,omitempty"`
	Content      string    `json:"content,omitempty"`
	CanonicalURL string    `json:"canonical_url,omitempty"`
	Error        string    `json:"error,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

func failedResult(url, errMsg string) *Metadata {
	return &Metadata{
		URL:       url,
		Status:    StatusFailed,
		Error:     errMsg,
		FetchedAt: time.Now(),
	}
}

// classify applies the outcome rules: success needs a title and at least one
// of description or image; anything extracted short of that is partial.
func classify(m *Metadata) Status {
	if m.Title != "" && (m.Description != "" || m.Image != "") {
		return StatusSuccess
	}
	if m.Title != "" || m.Description != "" || m.Image != "" {
		return StatusPartial
	}
	return StatusFailed
}
