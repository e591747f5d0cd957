package tags

import "testing"

func TestIsMusicFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/m/a.mp3", true},
		{"/m/a.FLAC", true},
		{"/m/a.ogg", true},
		{"/m/a.wav", true},
		{"/m/cover.jpg", false},
		{"/m/noext", false},
	}
	for _, c := range cases {
		if got := IsMusicFile(c.path); got != c.want {
			t.Errorf("IsMusicFile(%q) = %v, expected %v", c.path, got, c.want)
		}
	}
}

func TestParseNumberPair(t *testing.T) {
	cases := []struct {
		in          string
		num, total int
	}{
		{"", 0, 0},
		{"5", 5, 0},
		{"5/12", 5, 12},
		{" 3 / 9 ", 3, 9},
		{"junk", 0, 0},
	}
	for _, c := range cases {
		num, total := parseNumberPair(c.in)
		if num != c.num || total != c.total {
			t.Errorf("parseNumberPair(%q) = (%d, %d), expected (%d, %d)",
				c.in, num, total, c.num, c.total)
		}
	}
}

func TestTagYear(t *testing.T) {
	cases := []struct {
		date string
		want int
	}{
		{"", 0},
		{"1973", 1973},
		{"1973-03-01", 1973},
		{"junk", 0},
	}
	for _, c := range cases {
		tag := &Tag{Date: c.date}
		if got := tag.Year(); got != c.want {
			t.Errorf("Year(%q) = %d, expected %d", c.date, got, c.want)
		}
	}
}

func TestVorbisCommentsApply(t *testing.T) {
	tag := &Tag{}
	applyVorbisComments(map[string]string{
		"DATE":        "1979-11-30",
		"LABEL":       "Harvest",
		"BPM":         "120.5",
		"TOTALTRACKS": "26",
	}, tag)

	if tag.Date != "1979-11-30" {
		t.Errorf("date = %q", tag.Date)
	}
	if tag.Label != "Harvest" {
		t.Errorf("label = %q", tag.Label)
	}
	if tag.BPM != 120.5 {
		t.Errorf("bpm = %v", tag.BPM)
	}
	if tag.TotalTracks != 26 {
		t.Errorf("total tracks = %d", tag.TotalTracks)
	}
}
