package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"esales-dashboard/internal/aggregate"
	"esales-dashboard/internal/errors"
	"esales-dashboard/internal/filter"
	"esales-dashboard/internal/loader"
	"esales-dashboard/internal/services"
)

const dateLayout = "2006-01-02"

// filterQuery holds the raw date bounds; set constraints are read
// separately because presence matters there.
type filterQuery struct {
	Start string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `query:"end" validate:"omitempty,datetime=2006-01-02"`
}

type calculatorQuery struct {
	CostRatio float64 `query:"cost_ratio" validate:"gte=0.4,lte=0.8"`
}

// requestParser turns query strings into engine inputs.
type requestParser struct {
	validate *validator.Validate
}

func newRequestParser() *requestParser {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("query")
	})
	return &requestParser{validate: v}
}

// Criteria reads start, end, status, product_type and payment_method.
// A set parameter that is absent places no constraint; one that is present
// but empty selects nothing.
func (p *requestParser) Criteria(r *http.Request) (filter.Criteria, error) {
	q := r.URL.Query()
	fq := filterQuery{Start: q.Get("start"), End: q.Get("end")}
	if err := p.check(fq); err != nil {
		return filter.Criteria{}, err
	}

	c := filter.Criteria{
		Statuses:       selection(q, "status"),
		ProductTypes:   selection(q, "product_type"),
		PaymentMethods: selection(q, "payment_method"),
	}
	if fq.Start != "" {
		t, _ := time.Parse(dateLayout, fq.Start)
		c.Start = &t
	}
	if fq.End != "" {
		t, _ := time.Parse(dateLayout, fq.End)
		c.End = &t
	}
	if err := c.Validate(); err != nil {
		return filter.Criteria{}, errors.ValidationWrap(err, "start date must not be after end date")
	}
	return c, nil
}

// Calculator reads the calculator kind from the path and cost_ratio from the
// query, defaulting to aggregate.DefaultCostRatio.
func (p *requestParser) Calculator(r *http.Request) (aggregate.CalculatorRequest, error) {
	kind, err := aggregate.ParseCalculatorKind(r.PathValue("kind"))
	if err != nil {
		return aggregate.CalculatorRequest{}, errors.NotFoundWrap(err, fmt.Sprintf("unknown calculator %q", r.PathValue("kind")))
	}

	cq := calculatorQuery{CostRatio: aggregate.DefaultCostRatio}
	if raw := r.URL.Query().Get("cost_ratio"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return aggregate.CalculatorRequest{}, errors.ValidationWrap(err, "cost_ratio must be a number")
		}
		cq.CostRatio = v
	}
	if err := p.check(cq); err != nil {
		return aggregate.CalculatorRequest{}, err
	}
	return aggregate.CalculatorRequest{Kind: kind, CostRatio: cq.CostRatio}, nil
}

func (p *requestParser) check(v any) error {
	err := p.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.InternalWrap(err, "validate request")
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return errors.ValidationWrap(err, "Invalid query parameters").WithDetails(strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func selection(q url.Values, key string) filter.Selection {
	raw, ok := q[key]
	if !ok {
		return filter.All()
	}
	var values []string
	for _, v := range raw {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return filter.Only(values...)
}

// toAppError maps domain errors onto the HTTP error envelope.
func toAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	var loadErr *loader.DataLoadError

	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, services.ErrNoSnapshot), stderrors.Is(err, services.ErrNoSource):
		return errors.ServiceUnavailable("No dataset is loaded")
	case stderrors.As(err, &loadErr):
		return errors.DataLoad(err)
	case stderrors.Is(err, filter.ErrInvalidDateRange), stderrors.Is(err, aggregate.ErrCostRatioOutOfRange):
		return errors.ValidationWrap(err, err.Error())
	case stderrors.Is(err, aggregate.ErrUnknownCalculator):
		return errors.NotFoundWrap(err, err.Error())
	default:
		return errors.InternalWrap(err, "An unexpected error occurred")
	}
}
