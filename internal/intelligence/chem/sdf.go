package chem

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	"github.com/turtacn/molstandardizer/pkg/errors"
)

const (
	recordSeparator = "$$$$"
	maxLineBytes    = 4 << 20
)

// SDFRecord is one parsed record of an SD file.
type SDFRecord struct {
	// Index is the 0-based position of the record in the stream.
	Index int
	Graph *molecule.Graph
	Meta  *molecule.Metadata
	// Raw is the record text without the trailing "$$$$" line.
	Raw []byte
}

// SDFReader streams records out of an SD file.
type SDFReader struct {
	sc    *bufio.Scanner
	index int
}

// NewSDFReader returns a reader over r.
func NewSDFReader(r io.Reader) *SDFReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &SDFReader{sc: sc}
}

// NextRaw returns the text of the next record, or io.EOF once the stream
// is exhausted.  Blank records are skipped.
func (r *SDFReader) NextRaw() ([]byte, error) {
	for {
		var buf bytes.Buffer
		terminated := false
		for r.sc.Scan() {
			line := strings.TrimRight(r.sc.Text(), "\r")
			if strings.HasPrefix(line, recordSeparator) {
				terminated = true
				break
			}
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
		if err := r.sc.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMoleculeInvalidFormat, "reading SD file")
		}
		if len(bytes.TrimSpace(buf.Bytes())) == 0 {
			if terminated {
				continue
			}
			return nil, io.EOF
		}
		r.index++
		return buf.Bytes(), nil
	}
}

// Next reads and parses the next record.  When the record cannot be parsed
// the returned record still carries Index and Raw alongside the error, so
// callers can report it and carry on.
func (r *SDFReader) Next() (*SDFRecord, error) {
	raw, err := r.NextRaw()
	if err != nil {
		return nil, err
	}
	rec := &SDFRecord{Index: r.index - 1, Raw: raw}
	g, meta, err := ParseSDFRecord(raw)
	if err != nil {
		return rec, err
	}
	rec.Graph, rec.Meta = g, meta
	return rec, nil
}

// ParseSDFRecord parses one record: a V2000 mol block followed by optional
// data items ("> <NAME>" then value lines up to a blank line).  The title
// is stored under TitleProperty, ahead of the data items.
func ParseSDFRecord(raw []byte) (*molecule.Graph, *molecule.Metadata, error) {
	lines := splitLines(string(raw))
	end := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "M  END") {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, nil, molfileError("record has no \"M  END\" line")
	}

	g, title, err := ParseMolBlock(strings.Join(lines[:end+1], "\n"))
	if err != nil {
		return nil, nil, err
	}

	meta := molecule.NewMetadata()
	if title != "" {
		meta.Set(TitleProperty, title)
	}
	for _, p := range parseDataItems(lines[end+1:]) {
		meta.Set(p.Name, p.Value)
	}
	return g, meta, nil
}

func parseDataItems(lines []string) []molecule.Property {
	var props []molecule.Property
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !strings.HasPrefix(line, ">") {
			continue
		}
		open := strings.IndexByte(line, '<')
		closing := strings.LastIndexByte(line, '>')
		if open < 0 || closing <= open {
			continue
		}
		name := line[open+1 : closing]

		var value []string
		for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			i++
			value = append(value, lines[i])
		}
		props = append(props, molecule.Property{Name: name, Value: strings.Join(value, "\n")})
	}
	return props
}

// FormatSDFRecord renders g and meta as one SD record including the
// trailing "$$$$" line.
func FormatSDFRecord(g *molecule.Graph, meta *molecule.Metadata) []byte {
	title := ""
	if v, ok := meta.Get(TitleProperty); ok {
		title = v
	}
	return FormatSDFBlock(WriteMolBlock(g, title), meta.Properties())
}

// FormatSDFBlock appends props as data items to an already rendered mol
// block (or raw record text) and terminates the record.  TitleProperty is
// skipped since the block carries the title line.
func FormatSDFBlock(block string, props []molecule.Property) []byte {
	var buf bytes.Buffer
	buf.WriteString(block)
	if block != "" && !strings.HasSuffix(block, "\n") {
		buf.WriteByte('\n')
	}
	for _, p := range props {
		if p.Name == TitleProperty {
			continue
		}
		buf.WriteString("> <" + p.Name + ">\n")
		if p.Value != "" {
			buf.WriteString(p.Value)
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(recordSeparator + "\n")
	return buf.Bytes()
}

// SDFWriter writes records to an SD file.
type SDFWriter struct {
	w *bufio.Writer
}

// NewSDFWriter returns a buffered writer over w.  Call Flush when done.
func NewSDFWriter(w io.Writer) *SDFWriter {
	return &SDFWriter{w: bufio.NewWriter(w)}
}

// Write appends one record.
func (w *SDFWriter) Write(g *molecule.Graph, meta *molecule.Metadata) error {
	if _, err := w.w.Write(FormatSDFRecord(g, meta)); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "writing SD record")
	}
	return nil
}

// WriteBlock appends one record built from a rendered mol block.
func (w *SDFWriter) WriteBlock(block string, props []molecule.Property) error {
	if _, err := w.w.Write(FormatSDFBlock(block, props)); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "writing SD record")
	}
	return nil
}

// Flush flushes buffered output.
func (w *SDFWriter) Flush() error {
	return w.w.Flush()
}
