package models

// Theme is the appearance preference
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Profile holds the user-facing identity fields shown on the Settings surface
type Profile struct {
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
	Theme       Theme  `json:"theme"`
}

// Preferences holds the Settings toggles
type Preferences struct {
	AIEnabled     bool `json:"aiEnabled"`
	Notifications bool `json:"notifications"`
	Biometrics    bool `json:"biometrics"`
}

// DefaultPreferences returns the preferences used before the user changes anything
func DefaultPreferences() Preferences {
	return Preferences{
		AIEnabled:     true,
		Notifications: true,
		Biometrics:    false,
	}
}
