package export

import "fmt"

// Dataset defines tabular export content. Notes are free-text lines rendered
// after the table by formats that support them.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	Notes   []string
}

func (d Dataset) validate(format string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", format)
	}
	return nil
}

func (d Dataset) record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}
