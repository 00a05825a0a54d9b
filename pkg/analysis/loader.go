package analysis

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"cryotrack/internal/models"
	"cryotrack/pkg/markups"
	"cryotrack/pkg/mesh"
)

// Layout of a study data directory
const (
	CryotrackDir = "cryotrack_validation"
	BaselineDir  = "CT_baseline"

	markupsDir     = "markups"
	modelsDir      = "models"
	markupSuffix   = ".mrk.json"
	acquisitionLog = "acquisitions.txt"
)

var tumorMeshPattern = regexp.MustCompile(`^tumor-?([0-9]+)\.(vtk|stl)$`)

// LoadAcquisitions reads the acquisitions log, skipping blank lines
func LoadAcquisitions(path string) ([]Acquisition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Acquisition
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		acq, err := ParseAcquisition(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, acq)
	}
	return out, scanner.Err()
}

// LoadTumorMeshes loads tumor-<N>.vtk (or .stl) files keyed by target index N-1
func LoadTumorMeshes(dir string) (map[int]Surface, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	out := make(map[int]Surface)
	for _, e := range entries {
		m := tumorMeshPattern.FindStringSubmatch(e.Name())
		if m == nil || e.IsDir() {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		if _, dup := out[n-1]; dup {
			return nil, fmt.Errorf("%s: more than one mesh for tumor %d", dir, n)
		}
		s, err := mesh.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out[n-1] = s
	}
	return out, nil
}

// LoadRiskMeshes loads <risk>.vtk, or <risk>.stl when no VTK file exists,
// for every risk structure. File names are lower case.
func LoadRiskMeshes(dir string, risks []string) (map[string]Surface, error) {
	out := make(map[string]Surface, len(risks))
	for _, risk := range risks {
		base := filepath.Join(dir, strings.ToLower(risk))
		path := base + ".vtk"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if _, err := os.Stat(base + ".stl"); err == nil {
				path = base + ".stl"
			}
		}
		s, err := mesh.Load(path)
		if err != nil {
			return nil, fmt.Errorf("risk structure %s: %w", risk, err)
		}
		out[risk] = s
	}
	return out, nil
}

func loadPositions(path string, offset int) (map[int]models.Point, error) {
	f, err := markups.Load(path)
	if err != nil {
		return nil, err
	}
	return f.Positions(offset)
}

// LoadCryotrack reads the Cryotrack validation study rooted at dir
func LoadCryotrack(dir string, risks []string) (*ReferenceData, CryotrackInputs, error) {
	var in CryotrackInputs
	var err error

	if in.Acquisitions, err = LoadAcquisitions(filepath.Join(dir, acquisitionLog)); err != nil {
		return nil, in, err
	}
	mk := filepath.Join(dir, markupsDir)
	if in.Tips, err = loadPositions(filepath.Join(mk, "tip"+markupSuffix), 0); err != nil {
		return nil, in, err
	}
	if in.Entries, err = loadPositions(filepath.Join(mk, "entry-point"+markupSuffix), 0); err != nil {
		return nil, in, err
	}

	ref := &ReferenceData{RiskStructures: risks}
	if ref.Targets, err = loadPositions(filepath.Join(mk, "target"+markupSuffix), -1); err != nil {
		return nil, in, err
	}
	md := filepath.Join(dir, modelsDir)
	if ref.TumorMeshes, err = LoadTumorMeshes(md); err != nil {
		return nil, in, err
	}
	if ref.RiskMeshes, err = LoadRiskMeshes(md, risks); err != nil {
		return nil, in, err
	}
	return ref, in, nil
}

// LoadBaseline reads the CT-baseline study rooted at dir. Markup files that
// match neither the planned target nor the insertion naming are ignored.
// Insertions are ordered by their leading index, then by name.
func LoadBaseline(dir string, risks []string, logger *zap.Logger) (*ReferenceData, BaselineInputs, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	in := BaselineInputs{Targets: make(map[PlanKey]PlannedTarget)}
	mk := filepath.Join(dir, markupsDir)

	tumor, err := markups.Load(filepath.Join(mk, "tumor"+markupSuffix))
	if err != nil {
		return nil, in, err
	}
	ref := &ReferenceData{
		TumorPoints:    make(map[int]models.Point),
		RiskStructures: risks,
	}
	for i, p := range tumor.Ordered() {
		ref.TumorPoints[i] = p
	}

	paths, err := filepath.Glob(filepath.Join(mk, "*"+markupSuffix))
	if err != nil {
		return nil, in, err
	}
	sort.Strings(paths)

	for _, path := range paths {
		stem := strings.TrimSuffix(filepath.Base(path), markupSuffix)

		if name, err := ParseTargetMarkupName(stem); err == nil {
			line, err := loadLine(ref, path, name.TargetIndex-1, logger)
			if err != nil {
				return nil, in, err
			}
			key := PlanKey{TargetIndex: name.TargetIndex, Plane: name.Plane}
			if _, dup := in.Targets[key]; dup {
				return nil, in, fmt.Errorf("%s: duplicate planned target %s", path, key)
			}
			in.Targets[key] = PlannedTarget{Name: name, Line: line}
			continue
		}

		if name, err := ParseInsertionMarkupName(stem); err == nil {
			line, err := loadLine(ref, path, name.TargetIndex-1, logger)
			if err != nil {
				return nil, in, err
			}
			in.Insertions = append(in.Insertions, Insertion{Stem: stem, Name: name, Line: line})
		}
	}

	sort.SliceStable(in.Insertions, func(i, j int) bool {
		a, b := in.Insertions[i], in.Insertions[j]
		if a.Name.Index != b.Name.Index {
			return a.Name.Index < b.Name.Index
		}
		return a.Stem < b.Stem
	})

	md := filepath.Join(dir, modelsDir)
	if ref.TumorMeshes, err = LoadTumorMeshes(md); err != nil {
		return nil, in, err
	}
	if ref.RiskMeshes, err = LoadRiskMeshes(md, risks); err != nil {
		return nil, in, err
	}
	return ref, in, nil
}

func loadLine(ref *ReferenceData, path string, targetIndex int, logger *zap.Logger) (Line, error) {
	reference, err := ref.tumorPoint(targetIndex)
	if err != nil {
		return Line{}, fmt.Errorf("%s: %w", path, err)
	}
	f, err := markups.Load(path)
	if err != nil {
		return Line{}, err
	}
	line, swapped, err := lineFromMarkups(f, reference)
	if err != nil {
		return Line{}, err
	}
	if swapped {
		logger.Debug("swapped entry and final point", zap.String("markup", filepath.Base(path)))
	}
	return line, nil
}
