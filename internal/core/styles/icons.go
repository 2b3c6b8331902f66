package styles

// Status icons used in command output.
var (
	IconPass = "✔"
	IconWarn = "●"
	IconFail = "✘"
	IconSkip = "○"
)
