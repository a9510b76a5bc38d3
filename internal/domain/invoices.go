package domain

// InvoiceDescriptor identifies one invoice artifact. Name is the file name
// carrying the encoded vendor and amount; Path is an opaque source reference.
type InvoiceDescriptor struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// InvoiceRecord is one parsed invoice.
type InvoiceRecord struct {
	Vendor    string `json:"vendor"`
	Amount    int64  `json:"amount"`
	FileName  string `json:"file_name"`
	SourceRef string `json:"source_ref"`
}

// InvoiceGroup aggregates every invoice sharing the same raw vendor string.
type InvoiceGroup struct {
	Vendor      string          `json:"vendor"`
	TotalAmount int64           `json:"total_amount"`
	Records     []InvoiceRecord `json:"records"`
}

// InvoiceCollection is the result of collecting a set of descriptors.
// Groups are in order of first appearance of their vendor.
type InvoiceCollection struct {
	Groups       []InvoiceGroup
	Parsed       int
	Skipped      int
	SkippedNames []string
}

// RecordCount returns the number of invoice records across all groups.
func (c InvoiceCollection) RecordCount() int {
	n := 0
	for _, g := range c.Groups {
		n += len(g.Records)
	}
	return n
}
