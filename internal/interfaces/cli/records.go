package cli

import (
	"bufio"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/turtacn/molstandardizer/internal/domain/molecule"
	"github.com/turtacn/molstandardizer/internal/intelligence/chem"
	"github.com/turtacn/molstandardizer/pkg/errors"
	dto "github.com/turtacn/molstandardizer/pkg/types/molecule"
)

// RejectionProperty is the data item that carries the rejection reason in
// a rejects SD file.
const RejectionProperty = "STANDARDIZATION_REJECTION"

// inputRecord is one request plus the text it was read from.
type inputRecord struct {
	req *dto.StandardizeRequest
	raw string
}

// recordSource yields records until io.EOF.
type recordSource interface {
	Next() (*inputRecord, error)
}

func newRecordSource(format string, r io.Reader) recordSource {
	if format == "smiles" {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 4<<20)
		return &smilesSource{sc: sc}
	}
	return &sdfSource{r: chem.NewSDFReader(r)}
}

type sdfSource struct {
	r *chem.SDFReader
	n int
}

func (s *sdfSource) Next() (*inputRecord, error) {
	raw, err := s.r.NextRaw()
	if err != nil {
		return nil, err
	}
	s.n++
	return &inputRecord{
		req: &dto.StandardizeRequest{ID: "record-" + strconv.Itoa(s.n), Format: chem.FormatMolfile, Structure: string(raw)},
		raw: string(raw),
	}, nil
}

type smilesSource struct {
	sc *bufio.Scanner
	n  int
}

// Next skips blank lines and "#" comments.
func (s *smilesSource) Next() (*inputRecord, error) {
	for s.sc.Scan() {
		line := strings.TrimSpace(s.sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.n++
		return &inputRecord{
			req: &dto.StandardizeRequest{ID: "record-" + strconv.Itoa(s.n), Format: chem.FormatSMILES, Structure: line},
			raw: line,
		}, nil
	}
	if err := s.sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMoleculeInvalidFormat, "reading SMILES file")
	}
	return nil, io.EOF
}

// formatForLocation infers sdf or smiles from a file extension, falling
// back to def.
func formatForLocation(location, def string) string {
	switch strings.ToLower(path.Ext(location)) {
	case ".sdf", ".sd", ".mol":
		return "sdf"
	case ".smi", ".smiles":
		return "smiles"
	default:
		return def
	}
}

// resultWriter writes standardized structures in one output format.
type resultWriter struct {
	w   *bufio.Writer
	sdf *chem.SDFWriter
}

func newResultWriter(format string, w io.Writer) *resultWriter {
	rw := &resultWriter{}
	if format == "sdf" {
		rw.sdf = chem.NewSDFWriter(w)
	} else {
		rw.w = bufio.NewWriter(w)
	}
	return rw
}

// Write emits res.  SD output carries the result properties as data items;
// SMILES output is "<smiles> <title or id>".
func (rw *resultWriter) Write(res *dto.StandardizeResult) error {
	if rw.sdf != nil {
		return rw.sdf.WriteBlock(res.Molfile, toMoleculeProps(res.Properties))
	}
	name := res.ID
	for _, p := range res.Properties {
		if p.Name == chem.TitleProperty && p.Value != "" {
			name = p.Value
		}
	}
	if _, err := rw.w.WriteString(res.SMILES + " " + name + "\n"); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "writing SMILES")
	}
	return nil
}

func (rw *resultWriter) Flush() error {
	if rw.sdf != nil {
		return rw.sdf.Flush()
	}
	return rw.w.Flush()
}

// rejectWriter writes the input text of records that were not
// standardized, annotated with the reason.
type rejectWriter struct {
	format string
	w      *bufio.Writer
}

func newRejectWriter(format string, w io.Writer) *rejectWriter {
	return &rejectWriter{format: format, w: bufio.NewWriter(w)}
}

func (rw *rejectWriter) Write(rec *inputRecord, res *dto.StandardizeResult) error {
	reason := rejectionReason(res)
	var err error
	if rw.format == "sdf" {
		_, err = rw.w.Write(chem.FormatSDFBlock(rec.raw, []molecule.Property{{Name: RejectionProperty, Value: reason}}))
	} else {
		_, err = rw.w.WriteString(rec.raw + "\t" + reason + "\n")
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "writing rejected record")
	}
	return nil
}

func (rw *rejectWriter) Flush() error {
	return rw.w.Flush()
}

// rejectionReason is the rejection reason, or the status and error code for
// records that never reached the pipeline.
func rejectionReason(res *dto.StandardizeResult) string {
	if res.Status == dto.StatusRejected {
		return res.Reason
	}
	if res.Error != nil {
		return string(res.Status) + ": " + res.Error.Code
	}
	return string(res.Status)
}

func toMoleculeProps(props []dto.Property) []molecule.Property {
	out := make([]molecule.Property, len(props))
	for i, p := range props {
		out[i] = molecule.Property{Name: p.Name, Value: p.Value}
	}
	return out
}
