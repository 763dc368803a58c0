package ui

import "github.com/charmbracelet/lipgloss"

const (
	sidebarWidth = 38
	ellipsis     = "…"
)

var (
	normalDim = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	gray      = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray   = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}
	darkGray  = lipgloss.AdaptiveColor{Light: "#DDDADA", Dark: "#3C3C3C"}
	fuchsia   = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	green     = lipgloss.Color("#04B575")
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	cream     = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}

	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}
)

var (
	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(fuchsia).
			Bold(true).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(fuchsia).
			Bold(true)

	subtleStyle = lipgloss.NewStyle().Foreground(gray)

	dimStyle = lipgloss.NewStyle().Foreground(normalDim)

	errorStyle = lipgloss.NewStyle().Foreground(red)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(red).
			Padding(0, 1)

	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			Padding(1, 2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(darkGray)

	listStyle = lipgloss.NewStyle().Padding(1, 2)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.HiddenBorder()).
			BorderLeft(true).
			PaddingLeft(1)

	selectedCardStyle = cardStyle.
				BorderStyle(lipgloss.ThickBorder()).
				BorderForeground(fuchsia)

	cardTitleStyle    = lipgloss.NewStyle().Bold(true)
	cardSubtitleStyle = lipgloss.NewStyle().Foreground(gray)

	menuStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(midGray).
			Padding(0, 1)

	menuItemStyle         = lipgloss.NewStyle()
	selectedMenuItemStyle = lipgloss.NewStyle().Foreground(fuchsia).Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(darkGreen).
			Padding(0, 2)

	focusedButtonStyle = buttonStyle.
				Background(green).
				Underline(true)

	disabledButtonStyle = lipgloss.NewStyle().
				Foreground(normalDim).
				Background(darkGray).
				Padding(0, 2)

	focusedLabelStyle = lipgloss.NewStyle().Foreground(fuchsia)
	labelStyle        = lipgloss.NewStyle().Foreground(statusBarNoteFg)

	playerStyle = lipgloss.NewStyle().
			Padding(0, 2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(darkGray)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(statusBarBg)

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen)

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(red)
)
