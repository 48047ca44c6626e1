package termview

import "github.com/charmbracelet/lipgloss"

var (
	// Adaptive colors for dark/light terminals
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorBorder    = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}
	colorGreen     = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorRed       = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F56"}
	colorAmber     = lipgloss.AdaptiveColor{Light: "#C77800", Dark: "#FFB000"}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	metaStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	rankStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	sourceStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	bodyStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorRed).
			Padding(0, 1).
			Bold(true)

	velocityStyle = lipgloss.NewStyle().
			Foreground(colorAmber).
			Bold(true)

	briefBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)

func sentimentStyle(overall string) lipgloss.Style {
	switch overall {
	case "positive":
		return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	case "negative":
		return lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
	}
}
