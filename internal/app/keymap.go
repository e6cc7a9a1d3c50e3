package app

// Key binding constants used in handleKey. Writing keys go to the editor,
// so every action sits on a control chord.
const (
	KeyQuit          = "ctrl+c"
	KeyGenerateImage = "ctrl+g"
	KeyEndSession    = "ctrl+e"
	KeyReset         = "ctrl+r"
	KeyGrade         = "ctrl+s"
	KeyFeedback      = "ctrl+f"
	KeyCopy          = "ctrl+y"
	KeyExport        = "ctrl+p"

	KeyConfirm      = "y"
	KeyConfirmUpper = "Y"
	KeyCancel       = "n"
	KeyCancelUpper  = "N"
	KeyEsc          = "esc"
	KeyEnter        = "enter"
	KeyUp           = "up"
	KeyDown         = "down"
	KeyJ            = "j"
	KeyK            = "k"
)
