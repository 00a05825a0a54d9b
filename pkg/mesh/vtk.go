package mesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cryotrack/internal/models"
)

// maxPrealloc bounds slices sized from header counts; past it they grow as
// data is actually read
const maxPrealloc = 1 << 16

// maxToken is longer than any keyword or number of a valid file
const maxToken = 256

// vtkReader reads the body of a legacy VTK file. Keywords and counts are
// always text; data values are text or big-endian binary.
type vtkReader struct {
	r      *bufio.Reader
	binary bool

	// offsets is set for version 5 files, whose binary cell arrays are
	// stored as OFFSETS and CONNECTIVITY
	offsets bool

	peeked *string
	err    error
}

// next returns the next whitespace separated token and consumes the single
// delimiter after it, so binary data starts right after a keyword line
func (v *vtkReader) next() (string, bool) {
	if v.peeked != nil {
		tok := *v.peeked
		v.peeked = nil
		return tok, true
	}
	var b []byte
	for {
		c, err := v.r.ReadByte()
		if err != nil {
			if err != io.EOF {
				v.err = err
			}
			return string(b), len(b) > 0
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if len(b) == 0 {
				continue
			}
			if c == '\r' {
				if n, err := v.r.Peek(1); err == nil && n[0] == '\n' {
					v.r.ReadByte()
				}
			}
			return string(b), true
		}
		b = append(b, c)
		if len(b) > maxToken {
			return string(b), true
		}
	}
}

func (v *vtkReader) peek() (string, bool) {
	tok, ok := v.next()
	if ok {
		v.peeked = &tok
	}
	return tok, ok
}

// count reads a non-negative text count
func (v *vtkReader) count() (int, error) {
	tok, ok := v.next()
	if !ok {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}

func (v *vtkReader) float(kind string) (float64, error) {
	if !v.binary {
		tok, ok := v.next()
		if !ok {
			return 0, io.ErrUnexpectedEOF
		}
		return strconv.ParseFloat(tok, 64)
	}
	switch strings.ToLower(kind) {
	case "float":
		var x float32
		err := binary.Read(v.r, binary.BigEndian, &x)
		return float64(x), err
	case "double":
		var x float64
		err := binary.Read(v.r, binary.BigEndian, &x)
		return x, err
	}
	return 0, fmt.Errorf("unsupported point type %q", kind)
}

func (v *vtkReader) int(kind string) (int, error) {
	if !v.binary {
		tok, ok := v.next()
		if !ok {
			return 0, io.ErrUnexpectedEOF
		}
		return strconv.Atoi(tok)
	}
	switch strings.ToLower(kind) {
	case "int", "vtktypeint32":
		var x int32
		err := binary.Read(v.r, binary.BigEndian, &x)
		return int(x), err
	case "long", "vtktypeint64", "vtkidtype":
		var x int64
		err := binary.Read(v.r, binary.BigEndian, &x)
		return int(x), err
	}
	return 0, fmt.Errorf("unsupported index type %q", kind)
}

// binarySize is the width of one value of a VTK data type
func binarySize(kind string) (int64, bool) {
	switch strings.ToLower(kind) {
	case "char", "unsigned_char", "vtktypeint8", "vtktypeuint8":
		return 1, true
	case "short", "unsigned_short", "vtktypeint16", "vtktypeuint16":
		return 2, true
	case "int", "unsigned_int", "float", "vtktypeint32", "vtktypeuint32":
		return 4, true
	case "long", "unsigned_long", "double", "vtktypeint64", "vtktypeuint64", "vtkidtype":
		return 8, true
	}
	return 0, false
}

// skipField skips a FIELD block: "<name> <arrays>" then per array
// "<name> <components> <tuples> <type>" and its values
func (v *vtkReader) skipField() error {
	v.next() // name
	arrays, err := v.count()
	if err != nil {
		return err
	}
	for i := 0; i < arrays; i++ {
		v.next() // array name
		components, err := v.count()
		if err != nil {
			return err
		}
		tuples, err := v.count()
		if err != nil {
			return err
		}
		kind, _ := v.next()
		if tuples > 0 && components > math.MaxInt32/tuples {
			return fmt.Errorf("array of %d x %d values is too large", components, tuples)
		}
		n := int64(components) * int64(tuples)

		if v.binary {
			size, ok := binarySize(kind)
			if !ok {
				return fmt.Errorf("unsupported field type %q", kind)
			}
			if _, err := io.CopyN(io.Discard, v.r, n*size); err != nil {
				return err
			}
			continue
		}
		for j := int64(0); j < n; j++ {
			if _, ok := v.next(); !ok {
				return io.ErrUnexpectedEOF
			}
		}
	}
	return nil
}

// ReadVTK decodes a legacy VTK POLYDATA dataset, ASCII or BINARY. Polygons
// are fan triangulated and triangle strips unrolled; vertices, lines, field
// data and point or cell attributes are skipped.
func ReadVTK(r *bufio.Reader) ([]models.Point, []Triangle, error) {
	version, err := r.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("truncated header")
	}
	if _, err := r.ReadString('\n'); err != nil { // title
		return nil, nil, fmt.Errorf("truncated header")
	}

	v := &vtkReader{r: r}
	format, _ := v.next()
	switch strings.ToUpper(format) {
	case "ASCII":
	case "BINARY":
		v.binary = true
		v.offsets = majorVersion(version) >= 5
	default:
		return nil, nil, fmt.Errorf("unknown VTK file format %q", format)
	}

	var vertices []models.Point
	var triangles []Triangle

	for {
		keyword, ok := v.next()
		if !ok {
			break
		}
		switch strings.ToUpper(keyword) {
		case "DATASET":
			kind, _ := v.next()
			if !strings.EqualFold(kind, "POLYDATA") {
				return nil, nil, fmt.Errorf("unsupported dataset %q", kind)
			}
		case "FIELD":
			if err := v.skipField(); err != nil {
				return nil, nil, fmt.Errorf("FIELD: %w", err)
			}
		case "POINTS":
			if vertices, err = readPoints(v); err != nil {
				return nil, nil, fmt.Errorf("POINTS: %w", err)
			}
		case "POLYGONS", "TRIANGLE_STRIPS", "VERTICES", "LINES":
			cells, err := readCells(v)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", keyword, err)
			}
			switch strings.ToUpper(keyword) {
			case "POLYGONS":
				for _, c := range cells {
					for i := 2; i < len(c); i++ {
						triangles = append(triangles, Triangle{c[0], c[i-1], c[i]})
					}
				}
			case "TRIANGLE_STRIPS":
				for _, c := range cells {
					for i := 2; i < len(c); i++ {
						if i%2 == 0 {
							triangles = append(triangles, Triangle{c[i-2], c[i-1], c[i]})
						} else {
							triangles = append(triangles, Triangle{c[i-1], c[i-2], c[i]})
						}
					}
				}
			}
		case "POINT_DATA", "CELL_DATA":
			// Geometry is complete once attributes start
			return vertices, triangles, nil
		}
	}
	return vertices, triangles, v.err
}

// majorVersion parses "# vtk DataFile Version 5.1"; unknown versions are
// treated as legacy
func majorVersion(line string) int {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0
	}
	major, _, _ := strings.Cut(fields[len(fields)-1], ".")
	n, _ := strconv.Atoi(major)
	return n
}

func readPoints(v *vtkReader) ([]models.Point, error) {
	n, err := v.count()
	if err != nil {
		return nil, err
	}
	kind, _ := v.next()

	vertices := make([]models.Point, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		var c [3]float64
		for j := range c {
			if c[j], err = v.float(kind); err != nil {
				return nil, err
			}
		}
		vertices = append(vertices, models.Point{X: c[0], Y: c[1], Z: c[2]})
	}
	return vertices, nil
}

// readCells reads a cell array. Files up to version 4.2 store
// "<n> <size>" followed by n cells of "<k> i1 ... ik"; version 5.1 stores
// "<n+1> <size>" followed by OFFSETS and CONNECTIVITY arrays.
func readCells(v *vtkReader) ([][]int, error) {
	n, err := v.count()
	if err != nil {
		return nil, err
	}
	size, err := v.count()
	if err != nil {
		return nil, err
	}

	offsets := v.offsets
	if !v.binary {
		next, _ := v.peek()
		offsets = strings.EqualFold(next, "OFFSETS")
	}
	if offsets {
		return readOffsetCells(v, n, size)
	}

	cells := make([][]int, 0, min(n, maxPrealloc))
	used := 0
	for i := 0; i < n; i++ {
		k, err := v.int("int")
		if err != nil {
			return nil, err
		}
		if k < 0 {
			return nil, fmt.Errorf("cell %d has negative length %d", i, k)
		}
		if k >= size-used {
			return nil, fmt.Errorf("cells exceed the declared size %d", size)
		}
		used += k + 1
		cell := make([]int, 0, min(k, maxPrealloc))
		for j := 0; j < k; j++ {
			idx, err := v.int("int")
			if err != nil {
				return nil, err
			}
			cell = append(cell, idx)
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

func readOffsetCells(v *vtkReader, numOffsets, size int) ([][]int, error) {
	if kw, _ := v.next(); !strings.EqualFold(kw, "OFFSETS") {
		return nil, fmt.Errorf("expected OFFSETS, got %q", kw)
	}
	kind, _ := v.next()
	offsets := make([]int, 0, min(numOffsets, maxPrealloc))
	for i := 0; i < numOffsets; i++ {
		o, err := v.int(kind)
		if err != nil {
			return nil, err
		}
		offsets = append(offsets, o)
	}

	if kw, _ := v.next(); !strings.EqualFold(kw, "CONNECTIVITY") {
		return nil, fmt.Errorf("expected CONNECTIVITY, got %q", kw)
	}
	kind, _ = v.next()
	conn := make([]int, 0, min(size, maxPrealloc))
	for i := 0; i < size; i++ {
		c, err := v.int(kind)
		if err != nil {
			return nil, err
		}
		conn = append(conn, c)
	}

	var cells [][]int
	for i := 1; i < len(offsets); i++ {
		lo, hi := offsets[i-1], offsets[i]
		if lo < 0 || hi > len(conn) || lo > hi {
			return nil, fmt.Errorf("offset %d out of range", i)
		}
		cells = append(cells, conn[lo:hi])
	}
	return cells, nil
}
