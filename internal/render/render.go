// Package render turns a dashboard view into terminal cards or JSON.
package render

import (
	"fmt"
	"io"
	"math/big"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"pulse/internal/dashboard"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q: must be text or json", s)
	}
}

// Render writes v to w in the given format.
func Render(w io.Writer, f Format, v dashboard.View) error {
	if f == FormatJSON {
		return JSON(w, v)
	}
	return Text(w, v)
}

type jsonView struct {
	dashboard.View
	Error string `json:"error,omitempty"`
}

// JSON writes v as one indented JSON document.
func JSON(w io.Writer, v dashboard.View) error {
	out := jsonView{View: v}
	if v.Err != nil {
		out.Error = v.Err.Error()
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// Text writes metric cards, the filter status, the category table and the
// daily series.
func Text(w io.Writer, v dashboard.View) error {
	ew := &errWriter{w: w}
	iv := v.Selection.DateInterval

	ew.printf("Business metrics %s → %s", iv.Start, iv.End)
	if v.Source != "" {
		ew.printf("  [%s]", v.Source)
	}
	ew.printf("\n")
	if v.Loading {
		ew.printf("Refreshing…\n")
	}
	if v.Err != nil {
		ew.printf("Last refresh failed: %v\n", v.Err)
	}
	ew.printf("%s\n\n", v.Status.Summary())

	ew.printf("%-20s %16s  %s\n", "Total Revenue", Money(v.Metrics.TotalRevenue), Growth(v.Growth.Revenue))
	ew.printf("%-20s %16s  %s\n", "Total Users", humanize.Comma(v.Metrics.TotalUsers), Growth(v.Growth.Users))
	ew.printf("%-20s %16s  %s\n", "Total Orders", humanize.Comma(v.Metrics.TotalOrders), Growth(v.Growth.Orders))
	ew.printf("%-20s %16s  %s\n", "Avg Order Value", Money(v.Metrics.AverageOrderValue), Growth(v.Growth.AverageOrderValue))
	if ew.err != nil {
		return ew.err
	}

	if len(v.Rollups) > 0 {
		ew.printf("\n")
		tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "Category\tRevenue\tOrders\tUsers\t")
		for _, r := range v.Rollups {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", r.Category, Money(r.Revenue), humanize.Comma(r.Orders), humanize.Comma(r.Users))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	p := v.Performance
	ew.printf("\nPerformance  revenue %d  users %d  orders %d  conversion %d\n", p.Revenue, p.Users, p.Orders, p.Conversion)

	if len(v.Daily) > 0 {
		ew.printf("\nDaily revenue\n")
		for _, d := range v.Daily {
			ew.printf("  %s  %12s  %s orders\n", d.Date, Money(d.Revenue), humanize.Comma(d.Orders))
		}
	}
	return ew.err
}

// Money formats an amount with thousands separators and two decimals. The
// amount is never converted to float.
func Money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return sign + "$" + s
	}
	return sign + "$" + humanize.BigComma(n) + "." + frac
}

// Growth formats a percentage change with an explicit sign.
func Growth(pct float64) string {
	return fmt.Sprintf("%+.1f%%", pct)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
