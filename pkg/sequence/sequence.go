// Package sequence reads frame timestamps from MetaImage (.mha) sequence
// recordings of the CT-baseline insertions.
package sequence

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"cryotrack/internal/models"
)

// DefaultPrefix is the frame field prefix written by PLUS sequence files,
// e.g. "Seq_Frame0012_Timestamp = 123.456"
const DefaultPrefix = "Seq_Frame"

// ErrNoTimestamps is returned for a header without frame timestamps
var ErrNoTimestamps = errors.New("no frame timestamps found")

// Span is the first and last frame timestamp of a recording, in seconds
type Span struct {
	Start    float64 `json:"start_timestamp"`
	End      float64 `json:"end_timestamp"`
	Duration float64 `json:"duration"`
}

// headerEnd marks the last MetaImage header field; pixel data follows it
const headerEnd = "ElementDataFile"

// ReadFrameTimestamps scans the header of a sequence file and returns the
// first and last "<prefix>..._Timestamp = <value>" entries. Unfiltered
// timestamps are ignored.
func ReadFrameTimestamps(path, prefix string) (Span, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `\S*_Timestamp\s*=\s*(\S+)`)

	file, err := os.Open(path)
	if err != nil {
		return Span{}, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var span Span
	found := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, headerEnd) {
			break
		}
		m := pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Span{}, fmt.Errorf("%s: invalid timestamp in %q: %w", path, line, err)
		}
		if !found {
			span.Start = v
			found = true
		}
		span.End = v
	}
	if err := scanner.Err(); err != nil {
		return Span{}, fmt.Errorf("%s: %w", path, err)
	}
	if !found {
		return Span{}, fmt.Errorf("%s: %w", path, ErrNoTimestamps)
	}

	span.Duration = span.End - span.Start
	return span, nil
}

// ExtractDirectory reads every *.mha file in dir with up to workers
// goroutines and returns the spans keyed by file stem.
func ExtractDirectory(dir, prefix string, workers int) (map[string]Span, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.mha"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	if workers < 1 {
		workers = 1
	}

	spans := make([]Span, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				spans[i], errs[i] = ReadFrameTimestamps(paths[i], prefix)
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	out := make(map[string]Span, len(paths))
	for i, path := range paths {
		if errs[i] != nil {
			return nil, errs[i]
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out[stem] = spans[i]
	}
	return out, nil
}

// WriteTimestampsFile stores spans as timestamps.json. encoding/json sorts
// map keys, so the file is stable for identical input.
func WriteTimestampsFile(path string, spans map[string]Span) error {
	data, err := json.MarshalIndent(spans, "", "    ")
	if err != nil {
		return fmt.Errorf("error marshaling timestamps: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating timestamps directory: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// ReadTimestampsFile decodes timestamps.json into baseline timing rows sorted
// by name. Keys look like "t1-IP-sw" with an optional file extension; the
// strokes token defaults to single stroke.
func ReadTimestampsFile(path, operator string) ([]models.BaselineTiming, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spans map[string]Span
	if err := json.Unmarshal(data, &spans); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}

	rows := make([]models.BaselineTiming, 0, len(spans))
	for key, span := range spans {
		descriptor, _, _ := strings.Cut(key, ".")
		tokens := strings.Split(descriptor, "-")
		if len(tokens) < 2 {
			return nil, fmt.Errorf("%s: cannot decode recording name %q", path, key)
		}
		idx, err := models.TargetIndex(tokens[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %q: %w", path, key, err)
		}
		strokes := models.SingleStroke
		if len(tokens) > 2 {
			if s, err := models.ParseStrokes(tokens[2]); err == nil {
				strokes = s
			}
		}
		rows = append(rows, models.BaselineTiming{
			Name:        descriptor,
			Target:      tokens[0],
			TargetIndex: idx,
			Plane:       tokens[1],
			Strokes:     strokes,
			Operator:    operator,
			Start:       span.Start,
			End:         span.End,
			Duration:    span.Duration,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}
