// Command report runs the sales analytics over a CSV file without starting
// the web server. It prints the KPI block, the grouped revenue views and,
// optionally, one calculator, as text or JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"esales-dashboard/internal/aggregate"
	"esales-dashboard/internal/enrich"
	"esales-dashboard/internal/export"
	"esales-dashboard/internal/filter"
	"esales-dashboard/internal/loader"
	"esales-dashboard/internal/models"
)

const (
	dateLayout    = "2006-01-02"
	topCustomers  = 10
	loadTimeout   = 2 * time.Minute
	stdinFileName = "-"
)

type options struct {
	input          string
	start, end     string
	statuses       string
	productTypes   string
	paymentMethods string
	calculator     string
	costRatio      float64
	asJSON         bool
	exportPath     string
}

// report is the JSON form of the output.
type report struct {
	Source      string                   `json:"source"`
	Records     int                      `json:"records"`
	Filtered    int                      `json:"filtered"`
	KPIs        models.KPIBlock          `json:"kpis"`
	ProductType []models.SummaryRow      `json:"revenue_by_product_type"`
	Segments    []models.SummaryRow      `json:"revenue_by_segment"`
	Shipping    []models.SummaryRow      `json:"revenue_by_shipping"`
	Customers   []models.SummaryRow      `json:"top_customers"`
	Calculator  *models.CalculatorResult `json:"calculator,omitempty"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, logger); err != nil {
		logger.Error("report failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.input, "input", "electronic_sales.csv", "CSV file to analyse, - for stdin")
	fs.StringVar(&opts.start, "start", "", "first purchase date to include (YYYY-MM-DD)")
	fs.StringVar(&opts.end, "end", "", "last purchase date to include (YYYY-MM-DD)")
	fs.StringVar(&opts.statuses, "status", "", "comma-separated order statuses")
	fs.StringVar(&opts.productTypes, "product-type", "", "comma-separated product types")
	fs.StringVar(&opts.paymentMethods, "payment-method", "", "comma-separated payment methods")
	fs.StringVar(&opts.calculator, "calculator", "", "calculator to run: clv, profitability, conversion_rate or seasonal_multiplier")
	fs.Float64Var(&opts.costRatio, "cost-ratio", aggregate.DefaultCostRatio, "cost ratio for the profitability calculator")
	fs.BoolVar(&opts.asJSON, "json", false, "write JSON instead of tables")
	fs.StringVar(&opts.exportPath, "export", "", "also write the filtered records as CSV to this path")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, nil
}

// criteria builds filter criteria from the flags. Unset set flags place no
// constraint.
func (o options) criteria() (filter.Criteria, error) {
	c := filter.Criteria{
		Statuses:       flagSelection(o.statuses),
		ProductTypes:   flagSelection(o.productTypes),
		PaymentMethods: flagSelection(o.paymentMethods),
	}
	var err error
	if c.Start, err = flagDate("start", o.start); err != nil {
		return c, err
	}
	if c.End, err = flagDate("end", o.end); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func flagSelection(raw string) filter.Selection {
	if raw == "" {
		return filter.All()
	}
	var values []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return filter.Only(values...)
}

func flagDate(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("-%s: expected YYYY-MM-DD, got %q", name, raw)
	}
	return &t, nil
}

func (o options) source(stdin io.Reader) loader.Source {
	if o.input == stdinFileName {
		return loader.CSVReader{Label: "stdin", R: stdin}
	}
	return loader.CSVFile{Path: o.input}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	criteria, err := opts.criteria()
	if err != nil {
		return err
	}

	var calc *aggregate.CalculatorRequest
	if opts.calculator != "" {
		kind, err := aggregate.ParseCalculatorKind(opts.calculator)
		if err != nil {
			return err
		}
		calc = &aggregate.CalculatorRequest{Kind: kind, CostRatio: opts.costRatio}
	}

	src := opts.source(stdin)
	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	start := time.Now()
	raw, err := src.Read(loadCtx)
	if err != nil {
		return err
	}
	records := filter.Apply(enrich.Enrich(raw), criteria)
	logger.Info("records loaded",
		"source", src.Name(),
		"records", len(raw),
		"filtered", len(records),
		"duration", time.Since(start),
	)

	out := report{
		Source:      src.Name(),
		Records:     len(raw),
		Filtered:    len(records),
		KPIs:        aggregate.KPIs(records),
		ProductType: aggregate.RevenueByProductType(records),
		Segments:    aggregate.SegmentRevenue(records),
		Shipping:    aggregate.ShippingRevenue(records),
		Customers:   aggregate.TopCustomers(records, topCustomers),
	}
	if calc != nil {
		result, err := aggregate.Calculate(records, *calc)
		if err != nil {
			return err
		}
		out.Calculator = &result
	}

	if opts.exportPath != "" {
		if err := writeExport(opts.exportPath, records); err != nil {
			return err
		}
		logger.Info("export written", "path", opts.exportPath, "records", len(records))
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return writeText(stdout, out)
}

func writeExport(path string, records []models.EnrichedRecord) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return export.WriteCSV(f, records)
}

func writeText(w io.Writer, r report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Source\t%s\n", r.Source)
	fmt.Fprintf(tw, "Records\t%d of %d\n", r.Filtered, r.Records)
	fmt.Fprintf(tw, "Total revenue\t%.2f\n", r.KPIs.TotalRevenue)
	fmt.Fprintf(tw, "Orders\t%d\n", r.KPIs.TotalOrders)
	fmt.Fprintf(tw, "Customers\t%d\n", r.KPIs.UniqueCustomers)
	fmt.Fprintf(tw, "Avg order value\t%s\n", orNA(r.KPIs.AvgOrderValue))
	fmt.Fprintf(tw, "Completion rate\t%s\n", orNA(r.KPIs.CompletionRate))

	summaryTable(tw, "Revenue by product type", r.ProductType)
	summaryTable(tw, "Revenue by value segment", r.Segments)
	summaryTable(tw, "Revenue by shipping type", r.Shipping)
	summaryTable(tw, "Top customers", r.Customers)

	if r.Calculator != nil {
		calculatorTable(tw, r.Calculator)
	}
	return tw.Flush()
}

func summaryTable(w io.Writer, title string, rows []models.SummaryRow) {
	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintln(w, "Key\tRevenue\tOrders\tAvg order\tAvg rating\tUnits")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%.2f\t%d\t%s\t%s\t%d\n",
			row.Key, row.Revenue, row.Orders, orNA(row.AvgOrderValue), orNA(row.AvgRating), row.UnitsSold)
	}
}

func calculatorTable(w io.Writer, res *models.CalculatorResult) {
	fmt.Fprintf(w, "\nCalculator: %s\n", res.Kind)
	switch {
	case res.CLV != nil:
		c := res.CLV
		fmt.Fprintf(w, "Customers\t%d\n", c.Customers)
		fmt.Fprintf(w, "Avg order value\t%s\n", orNA(c.AvgOrderValue))
		fmt.Fprintf(w, "Purchase frequency\t%s\n", orNA(c.PurchaseFrequency))
		fmt.Fprintf(w, "Lifespan (years)\t%s\n", orNA(c.LifespanYears))
		fmt.Fprintf(w, "CLV\t%s\n", orNA(c.CLV))
	case res.Profitability != nil:
		fmt.Fprintf(w, "Cost ratio\t%.2f\n", res.CostRatio)
		fmt.Fprintln(w, "Product type\tRevenue\tCost\tGross profit\tMargin %")
		for _, p := range res.Profitability {
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%s\n",
				p.ProductType, p.Revenue, p.EstimatedCost, p.GrossProfit, orNA(p.MarginPct))
		}
	case res.Conversion != nil:
		fmt.Fprintln(w, "Product type\tCompleted\tTotal\tRate %")
		for _, c := range res.Conversion {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", c.ProductType, c.CompletedOrders, c.TotalOrders, orNA(c.ConversionRate))
		}
	case res.Multipliers != nil:
		fmt.Fprintln(w, "Season\tMultiplier\tPerformance")
		for _, m := range res.Multipliers {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.Season, orNA(m.Multiplier), m.Performance)
		}
	}
}

func orNA(v models.NullFloat) string {
	if !v.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v.Value)
}
