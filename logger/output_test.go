package logger

import "testing"

func TestShouldOutputThresholds(t *testing.T) {
	tests := []struct {
		category  OutputCategory
		verbosity int
		want      bool
	}{
		{OutputResults, VerbosityUser, true},
		{OutputStartup, VerbosityUser, false},
		{OutputStartup, VerbosityInfo, true},
		{OutputConnectionMutations, VerbosityInfo, false},
		{OutputConnectionMutations, VerbosityDebug, true},
		{OutputPluginStdout, VerbosityDebug, false},
		{OutputPluginStdout, VerbosityTrace, true},
		{OutputSnapshotDump, VerbosityTrace, false},
		{OutputSnapshotDump, VerbosityAll, true},
	}
	for _, tt := range tests {
		if got := ShouldOutput(tt.verbosity, tt.category); got != tt.want {
			t.Errorf("ShouldOutput(%d, %s) = %v, want %v", tt.verbosity, CategoryName(tt.category), got, tt.want)
		}
	}
}

func TestCategoryNameUnknown(t *testing.T) {
	if name := CategoryName(OutputCategory(999)); name != "unknown" {
		t.Errorf("CategoryName(999) = %q, want %q", name, "unknown")
	}
}

func TestShouldShowTickTimingAlwaysShowsOverrun(t *testing.T) {
	if !ShouldShowTickTiming(VerbosityUser, SlowTickThresholdMS+1) {
		t.Error("ShouldShowTickTiming should always report an overrunning tick regardless of verbosity")
	}
	if ShouldShowTickTiming(VerbosityUser, 0) {
		t.Error("ShouldShowTickTiming should not report routine timing at user verbosity")
	}
	if !ShouldShowTickTiming(VerbosityDebug, 0) {
		t.Error("ShouldShowTickTiming should report routine timing at -vv")
	}
}
