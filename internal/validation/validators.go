// Package validation holds the per-step listing form validators. Each
// validator is a pure function over the step's slice of the aggregate form
// data: no side effects, no access to other steps' fields, and it never
// fails with an error — missing data simply yields a populated error map.
package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"pasar/internal/models"
	"pasar/internal/transform"
)

// MaxCategories is the hard ceiling on selected categories, enforced at the
// mutation boundary as well as here.
const MaxCategories = 3

// Result is the outcome of validating one step: an overall flag plus a
// field-name to message map for everything that failed.
type Result struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
}

func valid() Result {
	return Result{IsValid: true, Errors: map[string]string{}}
}

// detailsInput carries the details step's fields with the same tag-based
// constraints the rest of the app declares on its models. Values are trimmed
// before validation so surrounding whitespace never counts toward length.
type detailsInput struct {
	Title       string `validate:"required,min=3,max=100"`
	Description string `validate:"required,min=10,max=500"`
}

var validate = validator.New()

// detailsMessages maps a failed field/tag pair onto the user-facing message.
var detailsMessages = map[string]map[string]string{
	"Title": {
		"required": "Title is required",
		"min":      "Title must be at least 3 characters",
		"max":      "Title must be less than 100 characters",
	},
	"Description": {
		"required": "Description is required",
		"min":      "Description must be at least 10 characters",
		"max":      "Description must be less than 500 characters",
	},
}

// Details validates the title/description step. Both fields are checked
// independently, so both errors may be present at once.
func Details(data models.FormData) Result {
	input := detailsInput{
		Title:       strings.TrimSpace(data.Title),
		Description: strings.TrimSpace(data.Description),
	}

	err := validate.Struct(input)
	if err == nil {
		return valid()
	}

	result := Result{IsValid: false, Errors: map[string]string{}}
	for _, fieldErr := range err.(validator.ValidationErrors) {
		field := strings.ToLower(fieldErr.Field())
		if msg, ok := detailsMessages[fieldErr.Field()][fieldErr.Tag()]; ok {
			result.Errors[field] = msg
		} else {
			result.Errors[field] = "Invalid value"
		}
	}
	return result
}

// Categories validates the category selection step. The mutation boundary
// already refuses to grow the set past MaxCategories; this re-checks the
// resulting size so the invariant holds no matter how the data arrived.
func Categories(data models.FormData) Result {
	if len(data.CategoryIDs) == 0 {
		return Result{IsValid: false, Errors: map[string]string{
			"categories": "Please select at least one category",
		}}
	}
	if len(data.CategoryIDs) > MaxCategories {
		return Result{IsValid: false, Errors: map[string]string{
			"categories": "You can select maximum 3 categories",
		}}
	}
	return valid()
}

// Pricing validates the pricing step: at least one of sale/rent must be
// offered, each offered price must sanitize and parse to a positive number,
// and renting additionally requires a period.
func Pricing(data models.FormData) Result {
	result := valid()

	if !data.AvailableForSale && !data.AvailableForRent {
		result.IsValid = false
		result.Errors["availability"] = "Please select at least one option (sale or rent)"
		return result
	}

	if data.AvailableForSale {
		price, ok := transform.ParsePriceText(data.PurchasePrice)
		if !ok || price <= 0 {
			result.IsValid = false
			result.Errors["purchasePrice"] = "Please enter a valid purchase price"
		}
	}

	if data.AvailableForRent {
		price, ok := transform.ParsePriceText(data.RentPrice)
		if !ok || price <= 0 {
			result.IsValid = false
			result.Errors["rentPrice"] = "Please enter a valid rent price"
		}
		if data.RentType == "" {
			result.IsValid = false
			result.Errors["rentType"] = "Please select a rent period"
		}
	}

	return result
}

// Images validates the image step. Images are optional, so the step never
// blocks progression.
func Images(models.FormData) Result {
	return valid()
}

// Review validates the final step: every prior step must be individually
// valid, and creating a new listing additionally requires accepted terms.
func Review(data models.FormData, mode models.FormMode) Result {
	result := valid()

	for _, prior := range []Result{Details(data), Categories(data), Pricing(data), Images(data)} {
		if !prior.IsValid {
			result.IsValid = false
			for field, msg := range prior.Errors {
				result.Errors[field] = msg
			}
		}
	}

	if mode == models.FormModeCreate && !data.TermsAccepted {
		result.IsValid = false
		result.Errors["terms"] = "You must accept the terms and conditions"
	}

	return result
}

// ForStep dispatches to the validator for the given step id. Unknown steps
// validate true so a new step added to the sequence fails open rather than
// wedging the wizard.
func ForStep(stepID string, data models.FormData, mode models.FormMode) Result {
	switch stepID {
	case models.StepDetails:
		return Details(data)
	case models.StepCategories:
		return Categories(data)
	case models.StepPricing:
		return Pricing(data)
	case models.StepImages:
		return Images(data)
	case models.StepReview:
		return Review(data, mode)
	default:
		return valid()
	}
}
