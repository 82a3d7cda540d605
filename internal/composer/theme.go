package composer

import (
	"embed"
	"os"
	"strconv"
	"strings"

	"github.com/scan-io-git/triage-bridge/internal/config"
)

//go:embed assets
var assets embed.FS

// ThemeProvider answers whether the host currently uses a dark theme.
type ThemeProvider interface {
	IsDark() bool
}

// StaticTheme is a fixed theme.
type StaticTheme bool

func (t StaticTheme) IsDark() bool { return bool(t) }

// EnvTheme follows the terminal background advertised in COLORFGBG ("fg;bg").
type EnvTheme struct{}

func (EnvTheme) IsDark() bool {
	parts := strings.Split(os.Getenv("COLORFGBG"), ";")
	if len(parts) < 2 {
		return false
	}
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return false
	}
	return bg < 7 || bg == 8
}

// ThemeFromConfig maps the ui.theme setting to a provider.
func ThemeFromConfig(name string) ThemeProvider {
	switch strings.ToLower(name) {
	case config.ThemeDark:
		return StaticTheme(true)
	case config.ThemeLight:
		return StaticTheme(false)
	default:
		return EnvTheme{}
	}
}

// themeCSS returns the stylesheet for the requested palette.
func themeCSS(dark bool) (string, error) {
	palette := "assets/light.css"
	if dark {
		palette = "assets/dark.css"
	}
	vars, err := assets.ReadFile(palette)
	if err != nil {
		return "", err
	}
	common, err := assets.ReadFile("assets/common.css")
	if err != nil {
		return "", err
	}
	return string(vars) + "\n" + string(common), nil
}
