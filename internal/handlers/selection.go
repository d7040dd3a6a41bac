package handlers

import (
	stderrors "errors"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/starfederation/datastar-go/datastar"

	"sales-insights/internal/errors"
	"sales-insights/internal/models"
)

// datastarParam carries the JSON-encoded signals on datastar GET requests.
const datastarParam = "datastar"

var selectionValidator = newSelectionValidator()

func newSelectionValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// selectionInput is a filter selection as it arrives, from query parameters
// or datastar signals, before validation.
type selectionInput struct {
	Regions    []string `json:"regions" validate:"max=64,dive,required,max=128"`
	Categories []string `json:"categories" validate:"max=64,dive,required,max=128"`
	Start      string   `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End        string   `json:"end" validate:"omitempty,datetime=2006-01-02"`
}

// selectionFromQuery accepts region and category either repeated
// (?region=East&region=West) or comma-separated (?region=East,West).
func selectionFromQuery(q url.Values) selectionInput {
	return selectionInput{
		Regions:    splitValues(q["region"]),
		Categories: splitValues(q["category"]),
		Start:      strings.TrimSpace(q.Get("start")),
		End:        strings.TrimSpace(q.Get("end")),
	}
}

// selectionFromRequest prefers datastar signals and falls back to plain
// query parameters, so the SSE endpoints can also be driven by curl.
func selectionFromRequest(r *http.Request) (selectionInput, error) {
	if r.Method == http.MethodGet && r.URL.Query().Get(datastarParam) == "" {
		return selectionFromQuery(r.URL.Query()), nil
	}

	var in selectionInput
	if err := datastar.ReadSignals(r, &in); err != nil {
		return selectionInput{}, err
	}
	in.Regions = splitValues(in.Regions)
	in.Categories = splitValues(in.Categories)
	in.Start = strings.TrimSpace(in.Start)
	in.End = strings.TrimSpace(in.End)
	return in, nil
}

func splitValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parse validates the input and converts it to a FilterSelection. Unknown
// regions or categories are not errors; they simply match nothing.
func (in selectionInput) parse() (models.FilterSelection, *errors.AppError) {
	if err := selectionValidator.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !stderrors.As(err, &fieldErrs) {
			return models.FilterSelection{}, errors.ValidationWrap(err, "invalid filter selection")
		}
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = describe(fe)
		}
		return models.FilterSelection{}, errors.InvalidFields("invalid filter selection", fields)
	}

	sel := models.FilterSelection{
		Regions:    in.Regions,
		Categories: in.Categories,
	}
	if in.Start != "" {
		sel.Start, _ = time.Parse(models.DateLayout, in.Start)
	}
	if in.End != "" {
		sel.End, _ = time.Parse(models.DateLayout, in.End)
	}

	if !sel.Start.IsZero() && !sel.End.IsZero() && sel.End.Before(sel.Start) {
		return models.FilterSelection{}, errors.InvalidFields("invalid filter selection",
			map[string]string{"end": "must not be before start"})
	}

	return sel, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "datetime":
		return "must be a date in YYYY-MM-DD form"
	case "required":
		return "must not be empty"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "too many values"
		}
		return "value too long"
	default:
		return "is invalid"
	}
}
