package persona

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Column offsets in the staff export. Only the name columns and the first
// email column are read.
const (
	colFamily  = 0
	colName    = 1
	colSurname = 2
	colEmail   = 15

	minColumns = colEmail + 1
)

// Batch is the outcome of reading an import file.
type Batch struct {
	Persona []Persona
	// Skipped counts data rows that lacked required columns.
	Skipped int
}

// ParseRow reads one tab-separated row. It reports false when the row has
// fewer columns than required.
func ParseRow(line string) (Persona, bool) {
	cols := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(cols) < minColumns {
		return Persona{}, false
	}
	p := Persona{
		Family:  strings.TrimSpace(cols[colFamily]),
		Name:    strings.TrimSpace(cols[colName]),
		Surname: strings.TrimSpace(cols[colSurname]),
		Email:   strings.TrimSpace(cols[colEmail]),
	}
	if p.Blank() {
		return Persona{}, false
	}
	return p, true
}

// Import reads a TSV stream whose first line is a header. Malformed rows are
// skipped and counted rather than failing the whole import.
func Import(r io.Reader) (Batch, error) {
	var b Batch
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, ok := ParseRow(line)
		if !ok {
			b.Skipped++
			continue
		}
		b.Persona = append(b.Persona, p)
	}
	if err := sc.Err(); err != nil {
		return b, fmt.Errorf("persona: import: %w", err)
	}
	return b, nil
}
