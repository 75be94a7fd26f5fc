package util

import (
	"strconv"
	"testing"
	"time"
)

var saudiWeekend = []time.Weekday{time.Friday, time.Saturday}

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestAddTradingDays(t *testing.T) {
	// 2024-10-06 is a Sunday.
	sun := time.Date(2024, 10, 6, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"sunday plus five lands next sunday", sun, 5, time.Date(2024, 10, 13, 10, 0, 0, 0, time.UTC)},
		{"thursday plus one skips weekend", time.Date(2024, 10, 10, 9, 0, 0, 0, time.UTC), 1, time.Date(2024, 10, 13, 9, 0, 0, 0, time.UTC)},
		{"friday start", time.Date(2024, 10, 11, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 10, 13, 0, 0, 0, 0, time.UTC)},
		{"zero days", sun, 0, sun},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AddTradingDays(tc.start, tc.n, saudiWeekend)
			if !got.Equal(tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestParseWeekdays(t *testing.T) {
	got := ParseWeekdays([]string{"Friday", "sat", "xx"})
	if len(got) != 2 || got[0] != time.Friday || got[1] != time.Saturday {
		t.Fatalf("unexpected %v", got)
	}
}

func TestSplitCSV(t *testing.T) {
	got := SplitCSV(" 2222, 1120 ,,7010")
	if len(got) != 3 || got[1] != "1120" {
		t.Fatalf("unexpected %v", got)
	}
}
