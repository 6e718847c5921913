package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for error messages.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey      = lipgloss.NewStyle().Foreground(colorGray).Width(14)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// printer
// =============================================================================

// printer writes styled command output.
type printer struct {
	w io.Writer
}

func (c *CLI) out() printer { return printer{w: c.Out} }

func (p printer) line(s string) { fmt.Fprintln(p.w, s) }

func (p printer) success(format string, args ...any) {
	p.line(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func (p printer) failure(format string, args ...any) {
	p.line(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	p.line(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	p.line(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

func (p printer) detail(format string, args ...any) {
	p.line("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (p printer) file(path string) {
	p.line("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func (p printer) keyValue(key, value string) {
	p.line(styleKey.Render(key) + " " + StyleValue.Render(value))
}

func (p printer) nextStep(description, cmd string) {
	p.line(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// stats prints diagnostic totals and the cache state on one line.
func (p printer) stats(diags define.Diagnostics, cached bool) {
	parts := []string{
		fmt.Sprintf("%d errors", diags.Count(define.SeverityError)),
		fmt.Sprintf("%d warnings", diags.Count(define.SeverityWarning)),
	}
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	var b strings.Builder
	b.WriteString("  ")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(StyleDim.Render(" · "))
		}
		b.WriteString(StyleDim.Render(part))
	}
	b.WriteString(StyleDim.Render(" · "))
	b.WriteString(statusStyle.Render(status))
	p.line(b.String())
}

// report prints the summary of a check: study identity and table counts.
func (p printer) report(r *pipeline.Report) {
	p.line(StyleTitle.Render(orDash(r.Study)))
	p.keyValue("File OID", orDash(r.FileOID))
	p.keyValue("Input", r.InputFormat)
	if r.DefineVersion != "" {
		p.keyValue("Define-XML", r.DefineVersion)
	}
	n := r.Counts
	p.keyValue("Datasets", StyleNumber.Render(fmt.Sprint(n.Datasets)))
	p.keyValue("Variables", StyleNumber.Render(fmt.Sprint(n.Variables)))
	p.keyValue("Values", StyleNumber.Render(fmt.Sprint(n.Values)))
	p.keyValue("Codelists", StyleNumber.Render(fmt.Sprint(n.Codelists)))
	p.keyValue("Methods", StyleNumber.Render(fmt.Sprint(n.Methods)))
	p.keyValue("Comments", StyleNumber.Render(fmt.Sprint(n.Comments)))
	if n.Displays > 0 {
		p.keyValue("Displays", StyleNumber.Render(fmt.Sprint(n.Displays)))
		p.keyValue("Results", StyleNumber.Render(fmt.Sprint(n.Results)))
	}
}

// diagnostics prints up to limit diagnostics, errors first. A limit of zero
// prints all of them.
func (p printer) diagnostics(diags define.Diagnostics, limit int) {
	ordered := append(diags.Filter(isError), diags.Filter(isWarning)...)
	shown := ordered
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, d := range shown {
		icon := styleIconWarning.Render(iconWarning)
		if d.Severity == define.SeverityError {
			icon = styleIconError.Render(iconError)
		}
		loc := diagLocation(d)
		if loc != "" {
			loc = StyleDim.Render(loc) + " "
		}
		p.line(icon + " " + loc + d.Message)
	}
	if rest := len(ordered) - len(shown); rest > 0 {
		p.detail("… %d more (use --max 0 to list all)", rest)
	}
}

func isError(d define.Diagnostic) bool   { return d.Severity == define.SeverityError }
func isWarning(d define.Diagnostic) bool { return d.Severity == define.SeverityWarning }

// diagLocation formats where a diagnostic points: a workbook cell or a
// markup path.
func diagLocation(d define.Diagnostic) string {
	var parts []string
	if d.Sheet != "" {
		parts = append(parts, d.Sheet)
	}
	if d.Row > 0 {
		parts = append(parts, fmt.Sprintf("row %d", d.Row))
	}
	if d.Column != "" {
		parts = append(parts, "["+d.Column+"]")
	}
	if d.Path != "" {
		parts = append(parts, d.Path)
	}
	return strings.Join(parts, " ")
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
