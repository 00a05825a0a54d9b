package models

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a position in the shared physical coordinate space of a study, in mm.
type Point = r3.Vec

// Plane is the needle insertion approach relative to the imaging transducer
type Plane int

const (
	InPlane Plane = iota
	OutOfPlane
)

// ParsePlane decodes the plane descriptors used across markup names,
// acquisition logs and bookmark labels.
func ParsePlane(s string) (Plane, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ip", "in", "i", "in plane":
		return InPlane, nil
	case "op", "oop", "out", "o", "out of plane":
		return OutOfPlane, nil
	}
	return 0, fmt.Errorf("could not parse plane descriptor %q", s)
}

// String returns the short descriptor ("ip" or "op")
func (p Plane) String() string {
	if p == OutOfPlane {
		return "op"
	}
	return "ip"
}

// Strokes is the number of corrective needle movements permitted in a trial
type Strokes string

const (
	SingleStroke Strokes = "ss"
	MultiStroke  Strokes = "sw"
)

// ParseStrokes decodes "ss" or "sw" (case-insensitive)
func ParseStrokes(s string) (Strokes, error) {
	switch Strokes(strings.ToLower(s)) {
	case SingleStroke:
		return SingleStroke, nil
	case MultiStroke:
		return MultiStroke, nil
	}
	return "", fmt.Errorf("could not parse strokes descriptor %q", s)
}

// Count is the stroke count reported in summary tables
func (s Strokes) Count() int {
	if s == MultiStroke {
		return 3
	}
	return 1
}

// Phase marks a bookmark as planning start, insertion start or insertion end
type Phase string

const (
	PhasePlanning Phase = "P"
	PhaseStart    Phase = "S"
	PhaseEnd      Phase = "E"
)

// TargetIndex decodes the 1-based index from a target name such as "t3" or "T3"
func TargetIndex(target string) (int, error) {
	if len(target) < 2 || (target[0] != 't' && target[0] != 'T') {
		return 0, fmt.Errorf("invalid target name %q", target)
	}
	digits := target[1:]
	if strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, fmt.Errorf("invalid target name %q", target)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("invalid target name %q: %w", target, err)
	}
	return n, nil
}
