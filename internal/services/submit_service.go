package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"pasar/internal/clients"
	"pasar/internal/models"
	"pasar/internal/transform"
)

// ValidationError is returned when a submission is aborted by the review
// step's validator, before any network call.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// EventPublisher publishes listing lifecycle events. Publishing is
// fire-and-forget; a failure is logged, never surfaced.
type EventPublisher interface {
	PublishListingSubmitted(event map[string]interface{}) error
}

// SubmitService orchestrates the final submission of the wizard: review-step
// validation, image reconciliation, outbound payload mapping, the single
// create-or-update round trip, and inbound mapping of the result.
type SubmitService struct {
	forms  *FormService
	client clients.ProductAPI
	events EventPublisher
}

// NewSubmitService creates a new SubmitService. events may be nil when no
// broker is configured.
func NewSubmitService(forms *FormService, client clients.ProductAPI, events EventPublisher) *SubmitService {
	return &SubmitService{
		forms:  forms,
		client: client,
		events: events,
	}
}

// Submit runs the submission for a session. On success the returned product
// is the backend's resource mapped through the inbound transformer and the
// create-mode draft is cleared; on failure the session stays on the review
// step with all entered data intact so the user can retry.
func (s *SubmitService) Submit(ctx context.Context, sessionID string) (*models.Product, error) {
	if err := s.forms.BeginSubmit(sessionID); err != nil {
		return nil, err
	}
	defer s.forms.EndSubmit(sessionID)

	// Validate the review step before touching the network: a submit issued
	// mid-wizard fails the same way as one from the review screen.
	result, err := s.forms.ValidateReviewStep(sessionID)
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		return nil, &ValidationError{Errors: result.Errors}
	}

	info, err := s.forms.Info(sessionID)
	if err != nil {
		return nil, err
	}

	input := buildInput(info)
	payload := transform.ToPayload(input)

	var wire *models.WireProduct
	switch info.Mode {
	case models.FormModeEdit:
		wire, err = s.client.UpdateProduct(ctx, info.ProductID, payload)
	default:
		wire, err = s.client.CreateProduct(ctx, payload, info.OwnerID)
	}
	if err != nil {
		return nil, submissionError(info.Mode, err)
	}

	product := transform.ToProduct(*wire)

	if info.Mode == models.FormModeCreate {
		s.forms.ClearDraft(sessionID)
	}

	s.publishSubmitted(info.Mode, &product)

	return &product, nil
}

// buildInput maps the aggregated step data onto the outbound draft shape.
// Price fields are included only when the corresponding availability flag is
// set, so a sale-only listing never sends a spurious rent price left over
// in form state; ToPayload then fills the unconditional rent defaults.
func buildInput(info SessionInfo) models.ProductInput {
	data := info.Data

	images := data.Images
	// An edit with no newly added images keeps the original product's
	// images instead of submitting an empty list, which would delete them.
	if info.Mode == models.FormModeEdit && len(images) == 0 && info.Existing != nil {
		for _, img := range info.Existing.Images {
			images = append(images, img.URL)
		}
	}

	input := models.ProductInput{
		Title:       data.Title,
		Description: data.Description,
		CategoryIDs: data.CategoryIDs,
		Images:      images,
	}

	if data.AvailableForSale {
		if price, ok := transform.ParsePriceText(data.PurchasePrice); ok {
			input.PurchasePrice = &price
		}
	}
	if data.AvailableForRent {
		if price, ok := transform.ParsePriceText(data.RentPrice); ok {
			input.RentPrice = &price
		}
		input.RentType = data.RentType
	}

	return input
}

// submissionError turns a remote rejection into the single user-facing
// message: the server's message verbatim when it sent one, else a generic
// per-mode fallback.
func submissionError(mode models.FormMode, err error) error {
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("%s", apiErr.Message)
	}
	if mode == models.FormModeEdit {
		return fmt.Errorf("Failed to update product")
	}
	return fmt.Errorf("Failed to create product")
}

func (s *SubmitService) publishSubmitted(mode models.FormMode, product *models.Product) {
	if s.events == nil {
		return
	}

	event := map[string]interface{}{
		"productId":        product.ID,
		"title":            product.Title,
		"mode":             string(mode),
		"availableForSale": product.AvailableForSale,
		"availableForRent": product.AvailableForRent,
	}
	if err := s.events.PublishListingSubmitted(event); err != nil {
		log.Printf("Warning: failed to publish listing submitted event for product %s: %v", product.ID, err)
	} else {
		log.Printf("Published listing submitted event for product %s", product.ID)
	}
}
