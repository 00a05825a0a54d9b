package bookmarks

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"cryotrack/internal/models"
)

const bookmarksOption = "bookmarks="

// playlist mirrors the parts of an XSPF file VLC writes bookmarks to
type playlist struct {
	XMLName xml.Name `xml:"playlist"`
	Tracks  []struct {
		Location  string `xml:"location"`
		Extension struct {
			Options []string `xml:"option"`
		} `xml:"extension"`
	} `xml:"trackList>track"`
}

// ReadPlaylist returns the bookmark blob of every track in an XSPF playlist.
// Tracks without bookmarks are skipped.
func ReadPlaylist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pl playlist
	if err := xml.Unmarshal(data, &pl); err != nil {
		return nil, fmt.Errorf("error parsing playlist %s: %w", path, err)
	}

	var blobs []string
	for _, track := range pl.Tracks {
		for _, opt := range track.Extension.Options {
			if blob, ok := strings.CutPrefix(strings.TrimSpace(opt), bookmarksOption); ok {
				blobs = append(blobs, blob)
			}
		}
	}
	return blobs, nil
}

// ExtractPlaylist extracts the insertion durations of one recording. Any
// malformed bookmark aborts the whole file; the error names the file.
func ExtractPlaylist(path string, opts Options) ([]models.InsertionDuration, error) {
	blobs, err := ReadPlaylist(path)
	if err != nil {
		return nil, err
	}

	if opts.Recording == "" {
		opts.Recording = filepath.Base(path)
	}

	var out []models.InsertionDuration
	for _, blob := range blobs {
		events, err := ParseBookmarks(blob)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		durations, err := Extract(events, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, durations...)
	}
	return out, nil
}

// ExtractDirectory processes every *.xspf playlist in dir using up to
// workers goroutines. Results are concatenated in lexical file order so the
// output does not depend on scheduling.
func ExtractDirectory(dir string, opts Options, workers int) ([]models.InsertionDuration, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.xspf"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	if workers < 1 {
		workers = 1
	}

	results := make([][]models.InsertionDuration, len(paths))
	errs := make([]error, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fileOpts := opts
				fileOpts.Recording = ""
				results[i], errs[i] = ExtractPlaylist(paths[i], fileOpts)
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var out []models.InsertionDuration
	for i := range paths {
		if errs[i] != nil {
			return nil, errs[i]
		}
		out = append(out, results[i]...)
	}
	return out, nil
}
