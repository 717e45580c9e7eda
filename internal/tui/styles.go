package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	fgColor        = lipgloss.Color("#F9FAFB") // Light

	// Layout styles
	AppStyle    = lipgloss.NewStyle().Padding(1, 2)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).MarginBottom(1)

	// List panel (left side)
	ListPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(mutedColor).Padding(0, 1)

	// Detail panel (right side)
	DetailPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primaryColor).Padding(1, 2)

	// Day headers inside the event list
	DayHeaderStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)

	// Event list item styles
	SelectedItemStyle = lipgloss.NewStyle().Background(primaryColor).Foreground(fgColor).Bold(true).Padding(0, 1)
	NormalItemStyle   = lipgloss.NewStyle().Foreground(fgColor).Padding(0, 1)
	PastItemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52525B")).Faint(true).Padding(0, 1)
	TimeStyle         = lipgloss.NewStyle().Foreground(secondaryColor).Width(14)
	DurationStyle     = lipgloss.NewStyle().Foreground(mutedColor).Width(6)

	// Detail panel styles
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).MarginBottom(1)
	LabelStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Width(12)
	ValueStyle = lipgloss.NewStyle().Foreground(fgColor)

	// Dialog styles
	DialogStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primaryColor).Padding(1, 2)
	DialogTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	FieldLabelStyle   = lipgloss.NewStyle().Foreground(accentColor).Width(11)
	FocusedLabelStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Width(11)
	FormErrorStyle    = lipgloss.NewStyle().Foreground(errorColor)
	SavingStyle       = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	ConfirmStyle      = lipgloss.NewStyle().Foreground(errorColor).Bold(true)

	// Pending move/resize indicator
	PendingMoveStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)

	// Toasts
	ToastInfoStyle  = lipgloss.NewStyle().Background(secondaryColor).Foreground(fgColor).Padding(0, 1)
	ToastErrorStyle = lipgloss.NewStyle().Background(errorColor).Foreground(fgColor).Padding(0, 1)

	// Help bar
	HelpStyle    = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
	HelpKeyStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
)
