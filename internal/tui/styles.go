package tui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary    = lipgloss.Color("#00BFFF") // Cyan: primary accent
	colorAccent     = lipgloss.Color("#FFD700") // Gold: peer view, prompts
	colorSuccess    = lipgloss.Color("#00E676") // Green: watched
	colorDanger     = lipgloss.Color("#FF5252") // Red: errors
	colorMuted      = lipgloss.Color("#636363") // Gray: de-emphasized
	colorMutedLight = lipgloss.Color("#8C8C8C") // Lighter gray: normal text
	colorWhite      = lipgloss.Color("#EEEEEE") // Off-white: primary text
	colorSurface    = lipgloss.Color("#1E1E2E") // Dark surface: status bar bg
	colorSurfaceDim = lipgloss.Color("#181825") // Darkest surface: footer bg
)

// Layout thresholds.
const (
	// CompactWidth switches the footer and status bar to terse output.
	CompactWidth = 60
	// chromeHeight is the rows taken by the status bar, the message line,
	// and the footer with its border.
	chromeHeight = 4
)

// Status bar styles.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorWhite).
			Bold(true).
			Padding(0, 1)

	styleStatusLabel = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleStatusValue = lipgloss.NewStyle().
				Foreground(colorWhite)

	styleStatusPeer = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)
)

// Detail panel styles.
var (
	styleDetail = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)

	styleDetailTitle = lipgloss.NewStyle().
				Foreground(colorWhite).
				Bold(true)

	styleDetailMeta = lipgloss.NewStyle().
			Foreground(colorMutedLight)

	styleDetailCount = lipgloss.NewStyle().
				Foreground(colorSuccess)

	styleDetailAction = lipgloss.NewStyle().
				Foreground(colorPrimary)
)

// Flash message styles.
var (
	styleFlashInfo = lipgloss.NewStyle().
			Foreground(colorMutedLight)

	styleFlashError = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	stylePrompt = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)
)

// Footer styles: top border, clear key/desc contrast.
var (
	styleFooter = lipgloss.NewStyle().
			Foreground(colorMuted).
			Background(colorSurfaceDim).
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(colorMuted)

	styleFooterKey = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleFooterSep = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleFooterDesc = lipgloss.NewStyle().
			Foreground(colorMutedLight)
)
