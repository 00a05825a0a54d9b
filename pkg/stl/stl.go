// Package stl reads and writes triangulated surfaces in the STL format.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Triangle is a single STL facet
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

const (
	headerSize   = 80
	triangleSize = 50
)

// SaveToSTL writes triangles as a binary STL file
func SaveToSTL(filename string, triangles []Triangle) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create STL file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := Write(w, triangles); err != nil {
		return err
	}
	return w.Flush()
}

// Write encodes triangles in binary STL
func Write(w io.Writer, triangles []Triangle) error {
	header := make([]byte, headerSize)
	copy(header, "cryotrack binary STL")
	if _, err := w.Write(header); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return err
	}

	buf := make([]byte, triangleSize)
	for _, t := range triangles {
		off := 0
		for _, v := range [][3]float32{t.Normal, t.Vertex1, t.Vertex2, t.Vertex3} {
			for _, c := range v {
				binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(c))
				off += 4
			}
		}
		buf[48], buf[49] = 0, 0
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a binary or ASCII STL file
func Load(filename string) ([]Triangle, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	triangles, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return triangles, nil
}

// Decode detects the STL flavour and decodes it. Some exporters start binary
// headers with "solid", so the binary size check wins when it matches.
func Decode(data []byte) ([]Triangle, error) {
	if len(data) >= headerSize+4 {
		n := binary.LittleEndian.Uint32(data[headerSize:])
		if int64(len(data)) == headerSize+4+int64(n)*triangleSize {
			return decodeBinary(data[headerSize+4:], int(n)), nil
		}
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid")) {
		return decodeASCII(data)
	}
	return nil, fmt.Errorf("not an STL file")
}

func decodeBinary(data []byte, n int) []Triangle {
	triangles := make([]Triangle, n)
	for i := range triangles {
		rec := data[i*triangleSize:]
		vals := make([]float32, 12)
		for j := range vals {
			vals[j] = math.Float32frombits(binary.LittleEndian.Uint32(rec[j*4:]))
		}
		triangles[i] = Triangle{
			Normal:  [3]float32{vals[0], vals[1], vals[2]},
			Vertex1: [3]float32{vals[3], vals[4], vals[5]},
			Vertex2: [3]float32{vals[6], vals[7], vals[8]},
			Vertex3: [3]float32{vals[9], vals[10], vals[11]},
		}
	}
	return triangles
}

func decodeASCII(data []byte) ([]Triangle, error) {
	var triangles []Triangle
	var cur Triangle
	vertex := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "facet":
			cur = Triangle{}
			vertex = 0
			if len(fields) == 5 && fields[1] == "normal" {
				v, err := parseVec(fields[2:])
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				cur.Normal = v
			}
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("line %d: malformed vertex", line)
			}
			v, err := parseVec(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			switch vertex {
			case 0:
				cur.Vertex1 = v
			case 1:
				cur.Vertex2 = v
			case 2:
				cur.Vertex3 = v
			default:
				return nil, fmt.Errorf("line %d: facet with more than 3 vertices", line)
			}
			vertex++
		case "endfacet":
			if vertex != 3 {
				return nil, fmt.Errorf("line %d: facet with %d vertices", line, vertex)
			}
			triangles = append(triangles, cur)
		}
	}
	return triangles, scanner.Err()
}

func parseVec(fields []string) ([3]float32, error) {
	var v [3]float32
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(f)
	}
	return v, nil
}
