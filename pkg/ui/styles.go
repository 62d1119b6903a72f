package ui

import (
	_ "embed"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// colorDef is an adaptive color definition in styles.yaml.
type colorDef struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// styleDef is a style definition in styles.yaml.
type styleDef struct {
	Bold       bool   `yaml:"bold,omitempty"`
	Italic     bool   `yaml:"italic,omitempty"`
	Underline  bool   `yaml:"underline,omitempty"`
	Foreground string `yaml:"foreground,omitempty"`
	Background string `yaml:"background,omitempty"`
}

type styleConfig struct {
	Colors map[string]colorDef `yaml:"colors"`
	Styles map[string]styleDef `yaml:"styles"`
}

//go:embed styles.yaml
var embeddedStyles []byte

// registry maps semantic names to lipgloss styles.
var registry map[string]lipgloss.Style

// Semantic styles used across command output, resolved from styles.yaml.
var (
	TitleStyle   lipgloss.Style
	HeaderStyle  lipgloss.Style
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	MutedStyle   lipgloss.Style
	PathStyle    lipgloss.Style
	VersionStyle lipgloss.Style
)

// Per-action styles for plan and apply listings.
var (
	AddStyle      lipgloss.Style
	UpdateStyle   lipgloss.Style
	MergeStyle    lipgloss.Style
	RemoveStyle   lipgloss.Style
	PreserveStyle lipgloss.Style
	SkipStyle     lipgloss.Style
)

func init() {
	if err := loadStyles(embeddedStyles); err != nil {
		// The embedded document is validated by tests; an unparsable one
		// still must not take the CLI down, so fall back to unstyled.
		registry = make(map[string]lipgloss.Style)
	}

	TitleStyle = GetStyle("Title")
	HeaderStyle = GetStyle("Header")
	SuccessStyle = GetStyle("Success")
	ErrorStyle = GetStyle("Error")
	WarningStyle = GetStyle("Warning")
	MutedStyle = GetStyle("Muted")
	PathStyle = GetStyle("Path")
	VersionStyle = GetStyle("Version")

	AddStyle = GetStyle("Add")
	UpdateStyle = GetStyle("Update")
	MergeStyle = GetStyle("Merge")
	RemoveStyle = GetStyle("Remove")
	PreserveStyle = GetStyle("Preserve")
	SkipStyle = GetStyle("Skip")
}

func loadStyles(data []byte) error {
	var config styleConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return err
	}

	colors := make(map[string]lipgloss.AdaptiveColor, len(config.Colors))
	for name, def := range config.Colors {
		colors[name] = lipgloss.AdaptiveColor{Light: def.Light, Dark: def.Dark}
	}

	registry = make(map[string]lipgloss.Style, len(config.Styles))
	for name, def := range config.Styles {
		registry[name] = buildStyle(def, colors)
	}
	return nil
}

func buildStyle(def styleDef, colors map[string]lipgloss.AdaptiveColor) lipgloss.Style {
	style := lipgloss.NewStyle()
	if def.Bold {
		style = style.Bold(true)
	}
	if def.Italic {
		style = style.Italic(true)
	}
	if def.Underline {
		style = style.Underline(true)
	}
	if def.Foreground != "" {
		if color, ok := colors[def.Foreground]; ok {
			style = style.Foreground(color)
		}
	}
	if def.Background != "" {
		if color, ok := colors[def.Background]; ok {
			style = style.Background(color)
		}
	}
	return style
}

// GetStyle retrieves a style from the registry by semantic name. Unknown
// names yield an unstyled default.
func GetStyle(name string) lipgloss.Style {
	if style, ok := registry[name]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// Styled wraps s in style when format is FormatTerminal, otherwise returns
// s unchanged. Keeps command renderers free of per-format branching.
func Styled(format Format, style lipgloss.Style, s string) string {
	if format == FormatTerminal {
		return style.Render(s)
	}
	return s
}
