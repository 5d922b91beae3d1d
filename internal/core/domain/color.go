package domain

// Color is a named terminal color. Sinks map it onto whatever their medium supports.
type Color string

const (
	ColorDefault Color = "default"
	ColorRed     Color = "red"
	ColorGreen   Color = "green"
	ColorYellow  Color = "yellow"
	ColorOrange  Color = "orange"
	ColorBlue    Color = "blue"
	ColorCyan    Color = "cyan"
	ColorGray    Color = "gray"
)

// LevelColor maps a security level to the color used in listings.
func LevelColor(l SecurityLevel) Color {
	switch l {
	case SecurityVeryLow:
		return ColorGreen
	case SecurityLow:
		return ColorCyan
	case SecurityMedium:
		return ColorYellow
	case SecurityHigh:
		return ColorOrange
	case SecurityVeryHigh:
		return ColorRed
	default:
		return ColorDefault
	}
}
