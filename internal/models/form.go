package models

import "time"

// FormMode distinguishes a brand-new listing from editing an existing one.
type FormMode string

const (
	FormModeCreate FormMode = "create"
	FormModeEdit   FormMode = "edit"
)

// Wizard step identifiers, in wizard order.
const (
	StepDetails    = "details"
	StepCategories = "categories"
	StepPricing    = "pricing"
	StepImages     = "images"
	StepReview     = "review"
)

// FormStep is one wizard page's metadata. IsValid and IsCompleted are stamped
// by the validator call and are always a function of the step's slice of
// FormData; they are never set independently.
type FormStep struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsValid     bool   `json:"isValid"`
	IsCompleted bool   `json:"isCompleted"`
}

// DefaultSteps returns a fresh wizard step sequence with all flags cleared.
func DefaultSteps() []FormStep {
	return []FormStep{
		{ID: StepDetails, Title: "Details"},
		{ID: StepCategories, Title: "Categories"},
		{ID: StepPricing, Title: "Pricing"},
		{ID: StepImages, Title: "Images"},
		{ID: StepReview, Title: "Review"},
	}
}

// FormData is the wizard's aggregate form data, the single source of truth
// for every step. Prices are kept as the raw text the user typed; sanitizing
// and parsing happen in the validators and the outbound mapping.
type FormData struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	CategoryIDs []string `json:"categoryIds"`

	AvailableForSale bool     `json:"availableForSale"`
	AvailableForRent bool     `json:"availableForRent"`
	PurchasePrice    string   `json:"purchasePrice"`
	RentPrice        string   `json:"rentPrice"`
	RentType         RentType `json:"rentType"`

	Images []string `json:"images"`

	TermsAccepted bool `json:"termsAccepted"`
}

// FormPatch is a partial FormData update. Nil fields are left untouched; the
// merge is shallow per step group (a categories patch replaces the whole
// category set, it is not unioned).
type FormPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`

	CategoryIDs *[]string `json:"categoryIds,omitempty"`

	AvailableForSale *bool     `json:"availableForSale,omitempty"`
	AvailableForRent *bool     `json:"availableForRent,omitempty"`
	PurchasePrice    *string   `json:"purchasePrice,omitempty"`
	RentPrice        *string   `json:"rentPrice,omitempty"`
	RentType         *RentType `json:"rentType,omitempty"`

	Images *[]string `json:"images,omitempty"`

	TermsAccepted *bool `json:"termsAccepted,omitempty"`
}

// ProductDraft is the persisted snapshot of an in-progress form. Drafts
// older than the configured TTL are discarded on load.
type ProductDraft struct {
	Data        FormData  `json:"data"`
	CurrentStep int       `json:"currentStep"`
	Timestamp   time.Time `json:"timestamp"`
}
