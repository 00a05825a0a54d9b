package bookmarks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"cryotrack/internal/models"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12.345}", 12345},
		{"12,345", 12345},
		{"0.5", 500},
		{"0,05", 50},
		{"301.250", 301250},
		{"7.1234", 7123},
		{"12.345,", 12345},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestampMalformed(t *testing.T) {
	for _, in := range []string{"", "12", "12}", "a.5", "12.b", "-1.5", ".5", "5."} {
		_, err := ParseTimestamp(in)
		if !errors.Is(err, ErrMalformedTimestamp) {
			t.Errorf("ParseTimestamp(%q) error = %v, want ErrMalformedTimestamp", in, err)
		}
		var mte *MalformedTimestampError
		if errors.As(err, &mte) && mte.Value != in {
			t.Errorf("error should carry the raw value %q, got %q", in, mte.Value)
		}
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		in   string
		want Label
	}{
		{"P_t3_JV_ip", Label{Phase: models.PhasePlanning, Target: "t3", TargetIndex: 3, Operator: "JV", Plane: "ip", Attempt: 1}},
		{"E_t3_JV_ip_2", Label{Phase: models.PhaseEnd, Target: "t3", TargetIndex: 3, Operator: "JV", Plane: "ip", Attempt: 2}},
		{"S_t12_HK_oop", Label{Phase: models.PhaseStart, Target: "t12", TargetIndex: 12, Operator: "HK", Plane: "oop", Attempt: 1}},
		{"E_t1_JM_ip_invalid", Label{Phase: models.PhaseEnd, Target: "t1", TargetIndex: 1, Operator: "JM", Plane: "ip", Attempt: 1, Qualifiers: []string{"invalid"}}},
		{"E_t1_JM_ip_3_invalid", Label{Phase: models.PhaseEnd, Target: "t1", TargetIndex: 1, Operator: "JM", Plane: "ip", Attempt: 3, Qualifiers: []string{"invalid"}}},
	}
	for _, tt := range tests {
		got, err := ParseName(tt.in)
		if err != nil {
			t.Errorf("ParseName(%q) error: %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("ParseName(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestParseNameMalformed(t *testing.T) {
	for _, in := range []string{"", "P_t3_JV", "X_t3_JV_ip", "P_3_JV_ip", "P_t3__ip", "P_t3_JV_"} {
		_, err := ParseName(in)
		if !errors.Is(err, ErrMalformedName) {
			t.Errorf("ParseName(%q) error = %v, want ErrMalformedName", in, err)
		}
	}
}

func TestParseBookmarks(t *testing.T) {
	blob := "{name=P_t3_JV_ip,time=0.0},{name=S_t3_JV_ip,time=1,000},{name=E_t3_JV_ip,time=5.000}"
	events, err := ParseBookmarks(blob)
	if err != nil {
		t.Fatalf("ParseBookmarks error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	wantTimes := []int64{0, 1000, 5000}
	wantPhases := []models.Phase{models.PhasePlanning, models.PhaseStart, models.PhaseEnd}
	for i, ev := range events {
		if ev.TimestampMS != wantTimes[i] {
			t.Errorf("event %d: time %d, want %d", i, ev.TimestampMS, wantTimes[i])
		}
		if ev.Label.Phase != wantPhases[i] {
			t.Errorf("event %d: phase %s, want %s", i, ev.Label.Phase, wantPhases[i])
		}
	}
}

func TestParseBookmarksEmpty(t *testing.T) {
	events, err := ParseBookmarks("  ")
	if err != nil {
		t.Fatalf("ParseBookmarks error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected no events, got %d", len(events))
	}
}

func TestParseBookmarksMalformed(t *testing.T) {
	tests := []struct {
		blob string
		want error
	}{
		{"{label=P_t3_JV_ip,time=0.0}", ErrMalformedRecord},
		{"{name=P_t3_JV_ip}", ErrMalformedRecord},
		{"{name=P_t3_JV_ip,time=zero}", ErrMalformedTimestamp},
		{"{name=P_t3,time=0.0}", ErrMalformedName},
	}
	for _, tt := range tests {
		_, err := ParseBookmarks(tt.blob)
		if !errors.Is(err, tt.want) {
			t.Errorf("ParseBookmarks(%q) error = %v, want %v", tt.blob, err, tt.want)
		}
	}
}

// events builds an event sequence from "<name>@<ms>" strings
func events(t *testing.T, marks ...string) []Event {
	t.Helper()
	out := make([]Event, 0, len(marks))
	for _, mark := range marks {
		name, ms, _ := strings.Cut(mark, "@")
		label, err := ParseName(name)
		if err != nil {
			t.Fatalf("bad fixture %q: %v", mark, err)
		}
		var ts int64
		if _, err := fmt.Sscanf(ms, "%d", &ts); err != nil {
			t.Fatalf("bad fixture %q: %v", mark, err)
		}
		out = append(out, Event{Name: name, Label: label, TimestampMS: ts})
	}
	return out
}

func TestExtractSingleInsertion(t *testing.T) {
	got, err := Extract(events(t, "P_t3_JV_ip@0", "S_t3_JV_ip@1000", "E_t3_JV_ip@5000"), Options{Recording: "rec.xspf"})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	want := []models.InsertionDuration{{
		Recording:     "rec.xspf",
		Name:          "t3_JV_ip",
		Target:        "t3",
		TargetIndex:   3,
		Operator:      "JV",
		Plane:         "ip",
		Attempt:       1,
		PlanningTime:  1.0,
		InsertionTime: 4.0,
		TotalTime:     5.0,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLastSeenWins(t *testing.T) {
	got, err := Extract(events(t, "P_t3_JV_ip@0", "P_t3_JV_ip@200", "S_t3_JV_ip@1000", "E_t3_JV_ip@5000"), Options{})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected exactly one duration, got %d", len(got))
	}
	if got[0].PlanningTime != 0.8 || got[0].TotalTime != 4.8 {
		t.Errorf("Expected planning 0.8s and total 4.8s from the last P, got %+v", got[0])
	}
}

func TestExtractPreservesOrder(t *testing.T) {
	got, err := Extract(events(t,
		"P_t1_JV_ip@0", "S_t1_JV_ip@500", "E_t1_JV_ip@2500",
		"P_t2_HK_oop@3000", "S_t2_HK_oop@4000", "E_t2_HK_oop_2@9000",
	), Options{})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	names := make([]string, len(got))
	for i, d := range got {
		names[i] = d.Name
	}
	if diff := cmp.Diff([]string{"t1_JV_ip", "t2_HK_oop_2"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if got[1].Attempt != 2 || got[1].InsertionTime != 5 {
		t.Errorf("unexpected second duration %+v", got[1])
	}
}

func TestExtractMissingPhase(t *testing.T) {
	tests := []struct {
		name    string
		seq     []string
		missing []string
	}{
		{"no planning", []string{"S_t1_JV_ip@0", "E_t1_JV_ip@10"}, []string{"P"}},
		{"no start", []string{"P_t1_JV_ip@0", "E_t1_JV_ip@10"}, []string{"S"}},
		{"end only", []string{"E_t1_JV_ip@10"}, []string{"P", "S"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(events(t, tt.seq...), Options{})
			var mpe *MissingPhaseError
			if !errors.As(err, &mpe) {
				t.Fatalf("Expected *MissingPhaseError, got %v", err)
			}
			if diff := cmp.Diff(tt.missing, mpe.Missing); diff != "" {
				t.Errorf("missing phases mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractRetakeReusesPlanning(t *testing.T) {
	seq := events(t,
		"P_t1_JV_ip@0", "S_t1_JV_ip@1000", "E_t1_JV_ip@5000",
		"S_t1_JV_ip_2@6000", "E_t1_JV_ip_2@9000",
	)

	got, err := Extract(seq, Options{})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 durations, got %d", len(got))
	}

	retake := got[1]
	if retake.Name != "t1_JV_ip_2" {
		t.Errorf("Expected retake name t1_JV_ip_2, got %q", retake.Name)
	}
	if retake.PlanningTime != 6.0 || retake.InsertionTime != 3.0 || retake.TotalTime != 9.0 {
		t.Errorf("Expected 6.0/3.0/9.0 seconds, got %.1f/%.1f/%.1f",
			retake.PlanningTime, retake.InsertionTime, retake.TotalTime)
	}

	// An end right after an end reuses the same planning and start
	twice, err := Extract(events(t, "P_t1_JV_ip@0", "S_t1_JV_ip@5", "E_t1_JV_ip@10", "E_t1_JV_ip@20"), Options{})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(twice) != 2 || twice[1].TotalTime != 0.02 {
		t.Errorf("Expected a second duration of 0.02s, got %+v", twice)
	}
}

func TestExtractInvalidFilter(t *testing.T) {
	seq := events(t,
		"P_t1_JV_ip@0", "S_t1_JV_ip@500", "E_t1_JV_ip_invalid@2500",
		"P_t1_JV_ip@3000", "S_t1_JV_ip@3500", "E_t1_JV_ip_2@6000",
	)

	excluded, err := Extract(seq, Options{ExcludeInvalid: true})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	for _, d := range excluded {
		if strings.Contains(d.Name, "invalid") {
			t.Errorf("invalid insertion %q present with exclusion enabled", d.Name)
		}
	}
	if len(excluded) != 1 {
		t.Errorf("Expected 1 duration with exclusion, got %d", len(excluded))
	}

	all, err := Extract(seq, Options{ExcludeInvalid: false})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(all) != 2 || all[0].Name != "t1_JV_ip_invalid" {
		t.Errorf("Expected the invalid insertion to be kept without exclusion, got %+v", all)
	}

	custom, err := Extract(seq, Options{ExcludeInvalid: true, InvalidMarker: "_2"})
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(custom) != 1 || custom[0].Name != "t1_JV_ip_invalid" {
		t.Errorf("custom marker not applied, got %+v", custom)
	}
}

const playlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<playlist xmlns="http://xspf.org/ns/0/" xmlns:vlc="http://www.videolan.org/vlc/playlist/ns/0/" version="1">
	<title>Playlist</title>
	<trackList>
		<track>
			<location>file:///videos/session.mp4</location>
			<duration>912000</duration>
			<extension application="http://www.videolan.org/vlc/playlist/0">
				<vlc:id>0</vlc:id>
				<vlc:option>%s</vlc:option>
			</extension>
		</track>
	</trackList>
</playlist>
`

func writePlaylist(t *testing.T, dir, name, bookmarks string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := fmt.Sprintf(playlistTemplate, "bookmarks="+bookmarks)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write playlist: %v", err)
	}
	return path
}

func TestExtractPlaylist(t *testing.T) {
	dir := t.TempDir()
	path := writePlaylist(t, dir, "jv.xspf",
		"{name=P_t3_JV_ip,time=0.0},{name=S_t3_JV_ip,time=1.0},{name=E_t3_JV_ip,time=5.0}")

	got, err := ExtractPlaylist(path, Options{ExcludeInvalid: true})
	if err != nil {
		t.Fatalf("ExtractPlaylist error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 duration, got %d", len(got))
	}
	if got[0].Recording != "jv.xspf" {
		t.Errorf("Expected recording jv.xspf, got %q", got[0].Recording)
	}
	if got[0].TotalTime != 5 {
		t.Errorf("Expected total time 5s, got %f", got[0].TotalTime)
	}
}

func TestExtractPlaylistErrorNamesFile(t *testing.T) {
	dir := t.TempDir()
	path := writePlaylist(t, dir, "broken.xspf", "{name=E_t3_JV_ip,time=5.0}")

	_, err := ExtractPlaylist(path, Options{})
	if err == nil {
		t.Fatal("Expected an error")
	}
	if !errors.Is(err, ErrMissingPhase) {
		t.Errorf("Expected ErrMissingPhase, got %v", err)
	}
	if !strings.Contains(err.Error(), "broken.xspf") {
		t.Errorf("Error should name the file, got %q", err.Error())
	}
}

func TestExtractDirectoryOrdering(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 6; i++ {
		target := fmt.Sprintf("t%d", i+1)
		writePlaylist(t, dir, fmt.Sprintf("rec_%02d.xspf", i), fmt.Sprintf(
			"{name=P_%[1]s_JV_ip,time=0.0},{name=S_%[1]s_JV_ip,time=1.0},{name=E_%[1]s_JV_ip,time=%[2]d.0}",
			target, 2+i))
	}

	got, err := ExtractDirectory(dir, Options{ExcludeInvalid: true}, 4)
	if err != nil {
		t.Fatalf("ExtractDirectory error: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("Expected 6 durations, got %d", len(got))
	}
	for i, d := range got {
		if d.TargetIndex != i+1 {
			t.Errorf("position %d: expected target %d, got %d", i, i+1, d.TargetIndex)
		}
		if d.Recording != fmt.Sprintf("rec_%02d.xspf", i) {
			t.Errorf("position %d: unexpected recording %q", i, d.Recording)
		}
	}
}
