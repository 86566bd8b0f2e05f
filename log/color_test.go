package log

import "testing"

func TestColoredString(t *testing.T) {
	if got := ColoredString("hi", ColorGreen, true); got != "hi" {
		t.Errorf("ColoredString without color = %q", got)
	}
	if got := ColoredString("hi", ColorGreen, false); got != ColorGreen+"hi"+ColorReset {
		t.Errorf("ColoredString with color = %q", got)
	}
}

func TestColoredLevel(t *testing.T) {
	tests := []struct {
		level   Level
		noColor bool
		want    string
	}{
		{DebugLevel, true, "| DEBUG |"},
		{InfoLevel, true, "| INFO  |"},
		{WarnLevel, false, ColorYellow + "| WARN  |" + ColorReset},
		{FatalLevel, false, ColorRed + ColorBold + "| FATAL |" + ColorReset},
		{Level(42), false, "| UNKN  |"},
	}
	for _, test := range tests {
		if got := ColoredLevel(test.level, test.noColor); got != test.want {
			t.Errorf("ColoredLevel(%v, %v) = %q, want %q", test.level, test.noColor, got, test.want)
		}
	}
}
