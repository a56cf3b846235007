package notifier

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/strategy"
)

// FormatAssetReport renders the dashboard header of one asset.
func FormatAssetReport(s *model.Snapshot) string {
	if s == nil {
		return ""
	}
	name := html.EscapeString(s.Profile.Name)
	if !s.OK() {
		reason := "unknown error"
		if s.Err != nil {
			reason = s.Err.Error()
		}
		return fmt.Sprintf("⚠️ <b>%s</b>: No Data (%s)\n", name, html.EscapeString(truncate(reason, 300)))
	}

	v := s.Valuation
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>%s DASHBOARD</b>\n", name))
	b.WriteString(fmt.Sprintf("<i>%s</i>\n\n", html.EscapeString(v.Note)))
	b.WriteString(fmt.Sprintf("CURRENT PRICE: <b>%s</b>\n", FormatMoney(v.CurrentPrice)))
	b.WriteString(fmt.Sprintf("DEVIATION INDEX: <b>%s</b>\n", FormatDeviation(v.CurrentDeviation)))
	b.WriteString(fmt.Sprintf("STATUS: <b>%s</b>\n", s.Classification.Label))
	if len(v.Warnings) > 0 {
		b.WriteString(fmt.Sprintf("⚠️ %d warning(s), partial result\n", len(v.Warnings)))
	}
	if s.Source != "" {
		b.WriteString(fmt.Sprintf("<i>source: %s, as of %s</i>\n", s.Source, v.AsOf.Format("2006-01-02")))
	}
	return b.String()
}

// FormatReport renders all assets of one collection run.
func FormatReport(snaps []*model.Snapshot, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>CryptoSentinel</b> | %s\n\n", now.Format("2006-01-02")))
	for i, s := range snaps {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatAssetReport(s))
	}
	return b.String()
}

// FormatBandChange announces that an asset moved to another band.
func FormatBandChange(s *model.Snapshot, previous model.Band) string {
	return fmt.Sprintf("🔔 <b>%s</b> band change: %s → <b>%s</b>\nDEVIATION INDEX: %s | PRICE: %s",
		html.EscapeString(s.Profile.Name), previous.Label(), s.Classification.Label,
		FormatDeviation(s.Valuation.CurrentDeviation), FormatMoney(s.Valuation.CurrentPrice))
}

// FormatBands lists the bands of one policy with their deviation ranges. An
// empty asset name gets the generic title.
func FormatBands(asset string, p strategy.Policy) string {
	var b strings.Builder
	title := "Deviation bands"
	if asset != "" {
		title = html.EscapeString(asset) + " bands"
	}
	b.WriteString(fmt.Sprintf("📐 <b>%s</b> (%s policy)\n\n", title, p.Name()))
	ranges := p.Ranges()
	if len(ranges) == 0 {
		b.WriteString("Lines unavailable: no deviation history yet.\n")
		return b.String()
	}
	for _, r := range ranges {
		b.WriteString(fmt.Sprintf("%s: %s\n", r.Label, formatRange(r)))
	}
	b.WriteString("\nLines:")
	for _, l := range p.Lines() {
		b.WriteString(" " + l.Label)
	}
	b.WriteString("\n")
	return b.String()
}

func formatRange(r strategy.BandRange) string {
	num := func(f *float64) string { return strconv.FormatFloat(*f, 'f', 2, 64) }
	switch {
	case r.Lower == nil && r.Upper != nil:
		return "< " + num(r.Upper)
	case r.Upper == nil && r.Lower != nil:
		return "> " + num(r.Lower)
	case r.Lower != nil && r.Upper != nil:
		return num(r.Lower) + " to " + num(r.Upper)
	default:
		return "any"
	}
}

// FormatHelp lists the supported commands.
func FormatHelp(assets []model.AssetProfile) string {
	var b strings.Builder
	b.WriteString("🤖 <b>CryptoSentinel commands</b>\n\n")
	for _, a := range assets {
		b.WriteString(fmt.Sprintf("/%s - %s dashboard\n", a.Short, strings.ToLower(a.Name)))
	}
	b.WriteString("/all - every asset\n")
	b.WriteString("/bands - fixed band thresholds\n")
	b.WriteString("/bands <asset> - bands of that asset's policy\n")
	b.WriteString("/help - this message\n")
	return b.String()
}

// FormatDeviation prints four decimals, or N/A when the value is undefined.
func FormatDeviation(d *float64) string {
	if d == nil || math.IsNaN(*d) {
		return "N/A"
	}
	return strconv.FormatFloat(*d, 'f', 4, 64)
}

// FormatMoney prints a dollar amount with thousands separators and two decimals.
func FormatMoney(v float64) string {
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	sign := ""
	if v < 0 {
		sign = "-"
	}
	return sign + "$" + b.String() + frac
}
