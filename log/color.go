package log

// ColoredString returns a colored string if color is enabled
func ColoredString(s string, color string, noColor bool) string {
	if noColor {
		return s
	}
	return color + s + ColorReset
}

var levelColors = map[Level]string{
	DebugLevel: ColorBlue,
	InfoLevel:  ColorGreen,
	WarnLevel:  ColorYellow,
	ErrorLevel: ColorRed,
	FatalLevel: ColorRed + ColorBold,
}

// ColoredLevel returns a padded, optionally colored level label such as
// "| INFO  |".
func ColoredLevel(level Level, noColor bool) string {
	var label string
	switch level {
	case DebugLevel:
		label = "| DEBUG |"
	case InfoLevel:
		label = "| INFO  |"
	case WarnLevel:
		label = "| WARN  |"
	case ErrorLevel:
		label = "| ERROR |"
	case FatalLevel:
		label = "| FATAL |"
	default:
		return "| UNKN  |"
	}
	if noColor {
		return label
	}
	return levelColors[level] + label + ColorReset
}
