package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyC         = 67  // C key (ASCII): create one particle
	KeyD         = 68  // D key (ASCII): destroy the selected id
	KeyP         = 80  // P key (ASCII): print live ids
	KeyR         = 82  // R key (ASCII): resize to the resize target
	KeyS         = 83  // S key (ASCII): toggle continuous spawn
	KeyMinus     = 45  // - key (ASCII): lower the resize target
	KeyEqual     = 61  // = key (ASCII): raise the resize target
	KeyBackspace = 259 // Backspace key (GLFW): back to the menu
	KeyEsc       = 256 // Escape key (GLFW): back to the menu
	KeyUp        = 265 // Up arrow (GLFW): next selected id
	KeyDown      = 264 // Down arrow (GLFW): previous selected id

	Key1 = 49 // 1 key (ASCII)
	Key2 = 50 // 2 key (ASCII)
	Key3 = 51 // 3 key (ASCII)
)
