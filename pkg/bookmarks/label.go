package bookmarks

import (
	"regexp"
	"strconv"
	"strings"

	"cryotrack/internal/models"
)

// Label is the decoded form of a bookmark name
// <phase>_<target>_<operator>_<plane>[_<attempt>][_<qualifier>...]
type Label struct {
	Phase       models.Phase
	Target      string
	TargetIndex int
	Operator    string
	Plane       string
	Attempt     int

	// Qualifiers are non-numeric trailing tokens such as "invalid"
	Qualifiers []string
}

var (
	targetPattern   = regexp.MustCompile(`^[tT][0-9]+$`)
	operatorPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	attemptPattern  = regexp.MustCompile(`^[0-9]+$`)
)

// ParseName decodes a bookmark label. The attempt defaults to 1 when no
// numeric fifth token is present.
func ParseName(name string) (Label, error) {
	tokens := strings.Split(name, "_")
	if len(tokens) < 4 {
		return Label{}, &MalformedNameError{Name: name, Reason: "expected at least 4 '_'-separated tokens"}
	}

	label := Label{
		Phase:    models.Phase(tokens[0]),
		Target:   tokens[1],
		Operator: tokens[2],
		Plane:    tokens[3],
		Attempt:  1,
	}

	switch label.Phase {
	case models.PhasePlanning, models.PhaseStart, models.PhaseEnd:
	default:
		return Label{}, &MalformedNameError{Name: name, Reason: "phase must be P, S or E"}
	}
	if !targetPattern.MatchString(label.Target) {
		return Label{}, &MalformedNameError{Name: name, Reason: "target must look like t<N>"}
	}
	idx, err := models.TargetIndex(label.Target)
	if err != nil {
		return Label{}, &MalformedNameError{Name: name, Reason: err.Error()}
	}
	label.TargetIndex = idx
	if !operatorPattern.MatchString(label.Operator) {
		return Label{}, &MalformedNameError{Name: name, Reason: "operator must be alphanumeric"}
	}
	if label.Plane == "" {
		return Label{}, &MalformedNameError{Name: name, Reason: "empty plane"}
	}

	attemptSeen := false
	for _, tok := range tokens[4:] {
		if !attemptSeen && attemptPattern.MatchString(tok) {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return Label{}, &MalformedNameError{Name: name, Reason: "attempt out of range"}
			}
			label.Attempt = n
			attemptSeen = true
			continue
		}
		label.Qualifiers = append(label.Qualifiers, tok)
	}

	return label, nil
}

// strayDelimiters may trail a time value cut out of the bookmark blob
const strayDelimiters = "},"

// ParseTimestamp converts a bookmark time such as "12.345" or "12,345"
// (seconds and a decimal fraction of a second, separator depending on the
// recording locale) to milliseconds. Digits beyond millisecond resolution
// are truncated.
func ParseTimestamp(s string) (int64, error) {
	v := s
	if v != "" && strings.ContainsRune(strayDelimiters, rune(v[len(v)-1])) {
		v = v[:len(v)-1]
	}

	var secs, frac string
	var found bool
	if secs, frac, found = strings.Cut(v, ","); !found {
		secs, frac, found = strings.Cut(v, ".")
	}
	if !found {
		return 0, &MalformedTimestampError{Value: s, Reason: "no '.' or ',' separator"}
	}
	if !attemptPattern.MatchString(secs) || !attemptPattern.MatchString(frac) {
		return 0, &MalformedTimestampError{Value: s, Reason: "seconds and fraction must be integers"}
	}

	seconds, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return 0, &MalformedTimestampError{Value: s, Reason: err.Error()}
	}

	// Fraction of a second at millisecond resolution: "5" -> 500, "345" -> 345
	if len(frac) > 3 {
		frac = frac[:3]
	}
	frac += strings.Repeat("0", 3-len(frac))
	ms, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, &MalformedTimestampError{Value: s, Reason: err.Error()}
	}

	return seconds*1000 + ms, nil
}
