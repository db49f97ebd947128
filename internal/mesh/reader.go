package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// Load reads a legacy VTK unstructured grid from path.
// A missing path, or one naming a directory, yields ErrFileNotFound.
func Load(path string) (*Mesh, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrFileNotFound, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return m, nil
}

// Read parses an ASCII legacy VTK file holding a DATASET UNSTRUCTURED_GRID.
// Arrays with more than one component are skipped.
func Read(r io.Reader) (*Mesh, error) {
	lx := newLexer(r)

	header, err := lx.rawLine()
	if err != nil || !strings.HasPrefix(strings.ToLower(strings.TrimSpace(header)), "# vtk datafile version") {
		return nil, lx.errorf("missing '# vtk DataFile Version' header")
	}
	version := parseVersion(header)

	title, err := lx.rawLine()
	if err != nil {
		return nil, lx.errorf("missing title line")
	}

	encoding, err := lx.next()
	if err != nil {
		return nil, lx.errorf("missing file type")
	}
	switch strings.ToUpper(encoding) {
	case "ASCII":
	case "BINARY":
		return nil, lx.errorf("binary legacy files are not supported")
	default:
		return nil, lx.errorf("unknown file type %q", encoding)
	}

	if err := lx.expect("DATASET"); err != nil {
		return nil, err
	}
	kind, err := lx.next()
	if err != nil || !strings.EqualFold(kind, "UNSTRUCTURED_GRID") {
		return nil, lx.errorf("dataset %q is not UNSTRUCTURED_GRID", kind)
	}

	p := &parser{lx: lx, version: version, mesh: &Mesh{Title: strings.TrimSpace(title)}}
	if err := p.body(); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p.mesh, nil
}

func parseVersion(header string) float64 {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return 0
	}
	return v
}

type parser struct {
	lx        *lexer
	version   float64
	mesh      *Mesh
	cellTypes []CellType
	assoc     Association
	tuples    int
	inData    bool
}

func (p *parser) body() error {
	for {
		kw, err := p.lx.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		p.lx.section = strings.ToUpper(kw)

		switch p.lx.section {
		case "POINTS":
			err = p.points()
		case "CELLS":
			err = p.cells()
		case "CELL_TYPES":
			err = p.types()
		case "POINT_DATA", "CELL_DATA":
			p.assoc = PointAssoc
			if p.lx.section == "CELL_DATA" {
				p.assoc = CellAssoc
			}
			p.tuples, err = p.lx.count()
			p.inData = true
		case "SCALARS":
			err = p.scalars()
		case "FIELD":
			err = p.field()
		case "VECTORS", "NORMALS":
			err = p.skipAttribute(3)
		case "TENSORS":
			err = p.skipAttribute(9)
		case "TEXTURE_COORDINATES":
			err = p.skipTexture()
		case "COLOR_SCALARS":
			err = p.skipColorScalars()
		case "LOOKUP_TABLE":
			err = p.skipLookupTable()
		case "METADATA":
			err = p.lx.skipBlock()
		default:
			return p.lx.errorf("unexpected keyword %q", kw)
		}
		if err != nil {
			return err
		}
	}
}

func (p *parser) points() error {
	n, err := p.lx.count()
	if err != nil {
		return err
	}
	if _, err := p.lx.next(); err != nil { // data type
		return p.lx.errorf("missing point data type")
	}
	pts := make([][3]float64, 0, preallocCap(n))
	for i := 0; i < n; i++ {
		var pt [3]float64
		for j := range pt {
			if pt[j], err = p.lx.float(); err != nil {
				return err
			}
		}
		pts = append(pts, pt)
	}
	p.mesh.Points = pts
	return nil
}

func (p *parser) cells() error {
	a, err := p.lx.count()
	if err != nil {
		return err
	}
	b, err := p.lx.count()
	if err != nil {
		return err
	}
	next, err := p.lx.peek()
	if err == nil && strings.EqualFold(next, "OFFSETS") {
		return p.offsetCells(a, b)
	}

	cells := make([]Cell, 0, preallocCap(a))
	read := 0
	for i := 0; i < a; i++ {
		k, err := p.lx.count()
		if err != nil {
			return err
		}
		if read+k+1 > b {
			return p.lx.errorf("cell %d overruns the cell list size %d", i, b)
		}
		pts := make([]int, k)
		for j := range pts {
			if pts[j], err = p.lx.int(); err != nil {
				return err
			}
		}
		cells = append(cells, Cell{Points: pts})
		read += k + 1
	}
	if read != b {
		return p.lx.errorf("cell list size %d, header says %d", read, b)
	}
	p.mesh.Cells = cells
	return nil
}

// offsetCells reads the 5.x layout: OFFSETS then CONNECTIVITY.
func (p *parser) offsetCells(nOffsets, nConn int) error {
	if err := p.lx.expect("OFFSETS"); err != nil {
		return err
	}
	if _, err := p.lx.next(); err != nil {
		return p.lx.errorf("missing offsets data type")
	}
	offsets, err := p.ints(nOffsets)
	if err != nil {
		return err
	}
	if err := p.lx.expect("CONNECTIVITY"); err != nil {
		return err
	}
	if _, err := p.lx.next(); err != nil {
		return p.lx.errorf("missing connectivity data type")
	}
	conn, err := p.ints(nConn)
	if err != nil {
		return err
	}

	if nOffsets == 0 {
		p.mesh.Cells = nil
		return nil
	}
	cells := make([]Cell, nOffsets-1)
	for i := range cells {
		lo, hi := offsets[i], offsets[i+1]
		if lo < 0 || hi < lo || hi > nConn {
			return p.lx.errorf("offset %d..%d outside connectivity of %d", lo, hi, nConn)
		}
		pts := make([]int, hi-lo)
		copy(pts, conn[lo:hi])
		cells[i].Points = pts
	}
	p.mesh.Cells = cells
	return nil
}

func (p *parser) types() error {
	n, err := p.lx.count()
	if err != nil {
		return err
	}
	p.cellTypes = make([]CellType, 0, preallocCap(n))
	for i := 0; i < n; i++ {
		t, err := p.lx.int()
		if err != nil {
			return err
		}
		p.cellTypes = append(p.cellTypes, CellType(t))
	}
	return nil
}

func (p *parser) scalars() error {
	if !p.inData {
		return p.lx.errorf("SCALARS outside POINT_DATA or CELL_DATA")
	}
	rest := p.lx.restOfLine()
	if len(rest) < 2 {
		return p.lx.errorf("SCALARS needs a name and a data type")
	}
	name := rest[0]
	ncomp := 1
	if len(rest) > 2 {
		n, err := strconv.Atoi(rest[2])
		if err != nil || n < 1 {
			return p.lx.errorf("bad component count %q", rest[2])
		}
		ncomp = n
	}

	if next, err := p.lx.peek(); err == nil && strings.EqualFold(next, "LOOKUP_TABLE") {
		p.lx.restOfLine()
	}

	values, err := p.values(p.tuples * ncomp)
	if err != nil {
		return err
	}
	if ncomp == 1 {
		p.add(NewScalarField(name, p.assoc, values))
	}
	return nil
}

func (p *parser) field() error {
	if _, err := p.lx.next(); err != nil { // field data name
		return p.lx.errorf("FIELD needs a name")
	}
	narrays, err := p.lx.count()
	if err != nil {
		return err
	}
	for i := 0; i < narrays; i++ {
		name, err := p.lx.next()
		if err != nil {
			return p.lx.errorf("missing array %d of %d", i+1, narrays)
		}
		if strings.EqualFold(name, "METADATA") {
			if err := p.lx.skipBlock(); err != nil {
				return err
			}
			i--
			continue
		}
		ncomp, err := p.lx.count()
		if err != nil {
			return err
		}
		ntuples, err := p.lx.count()
		if err != nil {
			return err
		}
		if _, err := p.lx.next(); err != nil {
			return p.lx.errorf("array %q needs a data type", name)
		}
		values, err := p.values(ncomp * ntuples)
		if err != nil {
			return err
		}
		if ncomp != 1 {
			continue
		}
		if p.inData && ntuples != p.tuples {
			return p.lx.errorf("array %q has %d tuples, expected %d", name, ntuples, p.tuples)
		}
		if p.inData {
			p.add(NewScalarField(name, p.assoc, values))
		}
	}
	return nil
}

func (p *parser) add(f *ScalarField) {
	if f.Association == PointAssoc {
		p.mesh.PointData = append(p.mesh.PointData, f)
	} else {
		p.mesh.CellData = append(p.mesh.CellData, f)
	}
}

func (p *parser) values(n int) ([]float64, error) {
	if n < 0 {
		return nil, p.lx.errorf("negative value count %d", n)
	}
	out := make([]float64, 0, preallocCap(n))
	for i := 0; i < n; i++ {
		v, err := p.lx.float()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *parser) ints(n int) ([]int, error) {
	out := make([]int, 0, preallocCap(n))
	for i := 0; i < n; i++ {
		v, err := p.lx.int()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// maxPrealloc bounds the capacity reserved from a header count; larger
// sections grow as their values are read.
const maxPrealloc = 1 << 16

func preallocCap(n int) int {
	return min(n, maxPrealloc)
}

func (p *parser) skipAttribute(width int) error {
	p.lx.restOfLine()
	_, err := p.values(width * p.tuples)
	return err
}

func (p *parser) skipTexture() error {
	rest := p.lx.restOfLine()
	if len(rest) < 2 {
		return p.lx.errorf("TEXTURE_COORDINATES needs a dimension")
	}
	dim, err := strconv.Atoi(rest[1])
	if err != nil {
		return p.lx.errorf("bad texture dimension %q", rest[1])
	}
	_, err = p.values(dim * p.tuples)
	return err
}

func (p *parser) skipColorScalars() error {
	rest := p.lx.restOfLine()
	if len(rest) < 2 {
		return p.lx.errorf("COLOR_SCALARS needs a component count")
	}
	n, err := strconv.Atoi(rest[1])
	if err != nil {
		return p.lx.errorf("bad color component count %q", rest[1])
	}
	_, err = p.values(n * p.tuples)
	return err
}

func (p *parser) skipLookupTable() error {
	rest := p.lx.restOfLine()
	if len(rest) < 2 {
		return p.lx.errorf("LOOKUP_TABLE needs a size")
	}
	n, err := strconv.Atoi(rest[1])
	if err != nil {
		return p.lx.errorf("bad lookup table size %q", rest[1])
	}
	_, err = p.values(4 * n)
	return err
}

func (p *parser) validate() error {
	m := p.mesh
	if len(p.cellTypes) != len(m.Cells) {
		return fmt.Errorf("%w: %d cells but %d cell types", ErrFormat, len(m.Cells), len(p.cellTypes))
	}
	for i := range m.Cells {
		m.Cells[i].Type = p.cellTypes[i]
		for _, id := range m.Cells[i].Points {
			if id < 0 || id >= len(m.Points) {
				return fmt.Errorf("%w: cell %d references point %d of %d", ErrFormat, i, id, len(m.Points))
			}
		}
	}
	for _, f := range m.PointData {
		if f.Len() != len(m.Points) {
			return fmt.Errorf("%w: point array %q has %d values for %d points", ErrFormat, f.Name, f.Len(), len(m.Points))
		}
	}
	for _, f := range m.CellData {
		if f.Len() != len(m.Cells) {
			return fmt.Errorf("%w: cell array %q has %d values for %d cells", ErrFormat, f.Name, f.Len(), len(m.Cells))
		}
	}
	return nil
}

// lexer splits the input into whitespace separated tokens while keeping
// track of line numbers and line boundaries.
type lexer struct {
	sc      *bufio.Scanner
	line    int
	toks    []string
	section string
}

func newLexer(r io.Reader) *lexer {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &lexer{sc: sc}
}

func (l *lexer) rawLine() (string, error) {
	if !l.sc.Scan() {
		if err := l.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	l.line++
	return l.sc.Text(), nil
}

func (l *lexer) fill() error {
	for len(l.toks) == 0 {
		line, err := l.rawLine()
		if err != nil {
			return err
		}
		l.toks = strings.Fields(line)
	}
	return nil
}

func (l *lexer) next() (string, error) {
	if err := l.fill(); err != nil {
		return "", err
	}
	t := l.toks[0]
	l.toks = l.toks[1:]
	return t, nil
}

func (l *lexer) peek() (string, error) {
	if err := l.fill(); err != nil {
		return "", err
	}
	return l.toks[0], nil
}

// restOfLine returns and consumes the tokens left on the current line,
// or the whole next non-blank line if the current one is exhausted.
func (l *lexer) restOfLine() []string {
	if len(l.toks) == 0 {
		if err := l.fill(); err != nil {
			return nil
		}
	}
	rest := l.toks
	l.toks = nil
	return rest
}

// skipBlock discards lines up to and including the next blank line.
func (l *lexer) skipBlock() error {
	l.toks = nil
	for {
		line, err := l.rawLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			return nil
		}
	}
}

func (l *lexer) expect(kw string) error {
	t, err := l.next()
	if err != nil {
		return l.errorf("expected %s, got end of file", kw)
	}
	if !strings.EqualFold(t, kw) {
		return l.errorf("expected %s, got %q", kw, t)
	}
	return nil
}

func (l *lexer) int() (int, error) {
	t, err := l.next()
	if err != nil {
		return 0, l.errorf("unexpected end of file")
	}
	v, err := strconv.Atoi(t)
	if err != nil {
		return 0, l.errorf("expected integer, got %q", t)
	}
	return v, nil
}

// count reads a non-negative size from a section header.
func (l *lexer) count() (int, error) {
	v, err := l.int()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, l.errorf("negative count %d", v)
	}
	return v, nil
}

func (l *lexer) float() (float64, error) {
	t, err := l.next()
	if err != nil {
		return 0, l.errorf("unexpected end of file")
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, l.errorf("expected number, got %q", t)
	}
	return v, nil
}

func (l *lexer) errorf(format string, args ...any) error {
	return &ParseError{
		Line:    l.line,
		Section: l.section,
		Wrapped: fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...)),
	}
}
