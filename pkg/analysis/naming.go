package analysis

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"cryotrack/internal/models"
)

// ErrMalformedDescriptor matches every DescriptorError
var ErrMalformedDescriptor = errors.New("malformed descriptor")

// DescriptorError is returned when an acquisition line or markup file name
// does not follow the study naming convention
type DescriptorError struct {
	Kind  string
	Value string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("malformed %s %q", e.Kind, e.Value)
}

// Is reports whether target is ErrMalformedDescriptor
func (e *DescriptorError) Is(target error) bool { return target == ErrMalformedDescriptor }

var (
	// [<index> ...] [-...]t<N>-cryo-<operator>-<plane>[digit]
	acquisitionPattern = regexp.MustCompile(`^((?:[0-9]+\s+)*)(-*)(t[0-9]+)-cryo-([A-Za-z0-9]+)-([A-Za-z]+)([0-9]?)$`)

	targetMarkupPattern    = regexp.MustCompile(`^t([0-9])-(IP|OoP|OP|OOP)$`)
	insertionMarkupPattern = regexp.MustCompile(`^([0-9]?[0-9]) T([0-9])-(IP|OoP|OP|OOP)-(sw|ss)-([0-9])$`)
)

// Acquisition is one line of the Cryotrack acquisitions log
type Acquisition struct {
	// Name is the descriptor without leading '-' markers
	Name        string
	Target      string
	TargetIndex int
	Operator    string
	Plane       models.Plane

	// Indices are the markup control point ids, followed by the number of
	// leading '-' markers and, when present, the digit after the plane
	Indices []int
}

// ParseAcquisition decodes a line such as "12 13 --t3-cryo-JV-ip2"
func ParseAcquisition(line string) (Acquisition, error) {
	line = strings.TrimSpace(line)
	m := acquisitionPattern.FindStringSubmatch(line)
	if m == nil {
		return Acquisition{}, &DescriptorError{Kind: "acquisition", Value: line}
	}

	var indices []int
	for _, tok := range strings.Fields(m[1]) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return Acquisition{}, &DescriptorError{Kind: "acquisition", Value: line}
		}
		indices = append(indices, n)
	}
	indices = append(indices, len(m[2]))
	if m[6] != "" {
		indices = append(indices, int(m[6][0]-'0'))
	}

	plane, err := models.ParsePlane(m[5])
	if err != nil {
		return Acquisition{}, &DescriptorError{Kind: "acquisition", Value: line}
	}
	idx, err := models.TargetIndex(m[3])
	if err != nil {
		return Acquisition{}, &DescriptorError{Kind: "acquisition", Value: line}
	}

	return Acquisition{
		Name:        strings.TrimLeft(line[len(m[1]):], "-"),
		Target:      m[3],
		TargetIndex: idx,
		Operator:    m[4],
		Plane:       plane,
		Indices:     indices,
	}, nil
}

// TargetMarkupName is the decoded stem of a planned target line markup, e.g. "t2-OoP"
type TargetMarkupName struct {
	Target      string
	TargetIndex int
	Plane       models.Plane
}

// ParseTargetMarkupName decodes a planned target markup stem
func ParseTargetMarkupName(stem string) (TargetMarkupName, error) {
	m := targetMarkupPattern.FindStringSubmatch(stem)
	if m == nil {
		return TargetMarkupName{}, &DescriptorError{Kind: "target markup name", Value: stem}
	}
	plane, err := models.ParsePlane(m[2])
	if err != nil {
		return TargetMarkupName{}, &DescriptorError{Kind: "target markup name", Value: stem}
	}
	idx, _ := strconv.Atoi(m[1])
	return TargetMarkupName{Target: "t" + m[1], TargetIndex: idx, Plane: plane}, nil
}

// InsertionMarkupName is the decoded stem of a CT-baseline insertion line
// markup, e.g. "7 T2-IP-sw-1"
type InsertionMarkupName struct {
	Index       int
	Target      string
	TargetIndex int
	Plane       models.Plane
	Strokes     models.Strokes
	Attempt     int
}

// ParseInsertionMarkupName decodes an insertion markup stem
func ParseInsertionMarkupName(stem string) (InsertionMarkupName, error) {
	m := insertionMarkupPattern.FindStringSubmatch(stem)
	if m == nil {
		return InsertionMarkupName{}, &DescriptorError{Kind: "insertion markup name", Value: stem}
	}
	plane, err := models.ParsePlane(m[3])
	if err != nil {
		return InsertionMarkupName{}, &DescriptorError{Kind: "insertion markup name", Value: stem}
	}
	strokes, err := models.ParseStrokes(m[4])
	if err != nil {
		return InsertionMarkupName{}, &DescriptorError{Kind: "insertion markup name", Value: stem}
	}
	index, _ := strconv.Atoi(m[1])
	target, _ := strconv.Atoi(m[2])
	attempt, _ := strconv.Atoi(m[5])

	return InsertionMarkupName{
		Index:       index,
		Target:      "t" + m[2],
		TargetIndex: target,
		Plane:       plane,
		Strokes:     strokes,
		Attempt:     attempt,
	}, nil
}
