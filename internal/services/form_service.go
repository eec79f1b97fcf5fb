package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/transform"
	"pasar/internal/validation"
)

var (
	// ErrSessionNotFound is returned when a session id resolves to nothing.
	ErrSessionNotFound = errors.New("form session not found")
	// ErrSubmitInProgress is returned by BeginSubmit while a submission is
	// still pending for the session.
	ErrSubmitInProgress = errors.New("submission already in progress")
)

// FormConfig carries the tunables of the form engine.
type FormConfig struct {
	// DraftTTL is how long a saved draft stays resumable. Older drafts are
	// removed from storage on load, not merely ignored.
	DraftTTL time.Duration
	// DraftDebounce is the quiet period after the last edit before the
	// draft is written out.
	DraftDebounce time.Duration
}

// DefaultFormConfig returns the production settings: 24 hour drafts saved
// one second after the last keystroke.
func DefaultFormConfig() FormConfig {
	return FormConfig{
		DraftTTL:      24 * time.Hour,
		DraftDebounce: time.Second,
	}
}

// FormState is the snapshot of a session the presentation layer renders.
type FormState struct {
	SessionID     string            `json:"sessionId"`
	Mode          models.FormMode   `json:"mode"`
	ProductID     string            `json:"productId,omitempty"`
	CurrentStep   int               `json:"currentStep"`
	Steps         []models.FormStep `json:"steps"`
	Data          models.FormData   `json:"data"`
	CanGoNext     bool              `json:"canGoNext"`
	CanGoPrevious bool              `json:"canGoPrevious"`
	Errors        map[string]string `json:"errors"`
}

// formSession is one live wizard. All access goes through its mutex; the
// original runtime was single-threaded and nothing here relies on
// interleaving beyond that lock.
type formSession struct {
	mu sync.Mutex

	id        string
	mode      models.FormMode
	ownerID   string
	productID string
	existing  *models.Product

	currentStep int
	steps       []models.FormStep
	data        models.FormData

	// lastErrors holds the error map from the most recent validation of
	// the current step.
	lastErrors map[string]string

	submitting bool
	draftTimer *time.Timer
}

// FormService owns the wizard sessions: navigation guards, per-step
// validation write-back, and debounced draft persistence.
type FormService struct {
	drafts repositories.DraftRepository
	cfg    FormConfig

	mu       sync.RWMutex
	sessions map[string]*formSession
}

// NewFormService creates a new FormService on top of the given draft store.
func NewFormService(drafts repositories.DraftRepository, cfg FormConfig) *FormService {
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = 24 * time.Hour
	}
	if cfg.DraftDebounce <= 0 {
		cfg.DraftDebounce = time.Second
	}
	return &FormService{
		drafts:   drafts,
		cfg:      cfg,
		sessions: make(map[string]*formSession),
	}
}

// draftKey scopes the stored draft to the listing owner. Only create-mode
// sessions use drafts; an edit session is always seeded from the product
// being edited.
func draftKey(ownerID string) string {
	return "product_form_draft:" + ownerID
}

// StartCreateSession opens a new-listing wizard for the given owner. A
// non-stale saved draft is adopted: its data and step are restored, and
// every step up to the saved one is revalidated in order so the completion
// flags are accurate again.
func (s *FormService) StartCreateSession(ownerID string) FormState {
	sess := &formSession{
		id:         uuid.New().String(),
		mode:       models.FormModeCreate,
		ownerID:    ownerID,
		steps:      models.DefaultSteps(),
		lastErrors: map[string]string{},
	}

	if draft, ok := s.loadDraft(ownerID); ok {
		sess.data = draft.Data
		target := clampStep(draft.CurrentStep, len(sess.steps))
		for i := 0; i <= target; i++ {
			result := validation.ForStep(sess.steps[i].ID, sess.data, sess.mode)
			sess.steps[i].IsValid = result.IsValid
			sess.steps[i].IsCompleted = result.IsValid
			if i == target {
				sess.lastErrors = result.Errors
			}
		}
		sess.currentStep = target
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	return snapshot(sess)
}

// StartEditSession opens the wizard pre-filled from an existing product.
// All steps start unvalidated; each next() stamps completion as the user
// walks forward.
func (s *FormService) StartEditSession(ownerID string, product *models.Product) FormState {
	data := models.FormData{
		Title:            product.Title,
		Description:      product.Description,
		CategoryIDs:      append([]string(nil), product.Categories...),
		AvailableForSale: product.AvailableForSale,
		AvailableForRent: product.AvailableForRent,
		RentType:         product.RentType,
	}
	if product.PurchasePrice != nil {
		data.PurchasePrice = transform.FormatPrice(*product.PurchasePrice)
	}
	if product.RentPrice != nil {
		data.RentPrice = transform.FormatPrice(*product.RentPrice)
	}

	sess := &formSession{
		id:         uuid.New().String(),
		mode:       models.FormModeEdit,
		ownerID:    ownerID,
		productID:  product.ID,
		existing:   product,
		steps:      models.DefaultSteps(),
		data:       data,
		lastErrors: map[string]string{},
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	return snapshot(sess)
}

// GetState returns the current snapshot of a session.
func (s *FormService) GetState(sessionID string) (FormState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return FormState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return snapshot(sess), nil
}

// UpdateFormData shallow-merges a patch into the aggregate data, revalidates
// the current step only, and schedules a debounced draft save. Steps other
// than the current one keep their last stamped validity: a step is only
// revalidated by direct edits while it is current, or by next()/submit().
func (s *FormService) UpdateFormData(sessionID string, patch models.FormPatch) (FormState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return FormState{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	applyPatch(&sess.data, patch)

	result := validation.ForStep(sess.steps[sess.currentStep].ID, sess.data, sess.mode)
	sess.steps[sess.currentStep].IsValid = result.IsValid
	sess.steps[sess.currentStep].IsCompleted = result.IsValid
	sess.lastErrors = result.Errors

	s.scheduleDraftSave(sess)

	return snapshot(sess), nil
}

// Next validates the current step and, when it passes and there is a next
// step, advances. When validation fails the step pointer does not move and
// the snapshot carries the field errors. The newly entered step is not
// revalidated until its data changes.
func (s *FormService) Next(sessionID string) (FormState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return FormState{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	result := validation.ForStep(sess.steps[sess.currentStep].ID, sess.data, sess.mode)
	sess.steps[sess.currentStep].IsValid = result.IsValid
	sess.steps[sess.currentStep].IsCompleted = result.IsValid
	sess.lastErrors = result.Errors

	if result.IsValid && sess.currentStep < len(sess.steps)-1 {
		sess.currentStep++
	}

	return snapshot(sess), nil
}

// Previous steps back one step. Going back never requires the current step
// to validate.
func (s *FormService) Previous(sessionID string) (FormState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return FormState{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.currentStep > 0 {
		sess.currentStep--
	}
	return snapshot(sess), nil
}

// GoTo jumps directly to a step. The jump is allowed backward or laterally
// (target at or before the current step) and forward only onto a step whose
// immediate predecessor is completed; anything else is a no-op, not an
// error. Stepping into a step does not revalidate it.
func (s *FormService) GoTo(sessionID string, step int) (FormState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return FormState{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if step >= 0 && step < len(sess.steps) {
		if step <= sess.currentStep || sess.steps[step-1].IsCompleted {
			sess.currentStep = step
		}
	}
	return snapshot(sess), nil
}

// Reset restores the session to its freshly-initialized default state and
// clears any saved draft.
func (s *FormService) Reset(sessionID string) (FormState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return FormState{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.draftTimer != nil {
		sess.draftTimer.Stop()
		sess.draftTimer = nil
	}

	sess.currentStep = 0
	sess.steps = models.DefaultSteps()
	sess.data = models.FormData{}
	sess.lastErrors = map[string]string{}

	s.removeDraft(sess)

	return snapshot(sess), nil
}

// ValidateCurrentStep revalidates the current step and stamps its flags.
func (s *FormService) ValidateCurrentStep(sessionID string) (validation.Result, FormState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return validation.Result{}, FormState{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	result := validation.ForStep(sess.steps[sess.currentStep].ID, sess.data, sess.mode)
	sess.steps[sess.currentStep].IsValid = result.IsValid
	sess.steps[sess.currentStep].IsCompleted = result.IsValid
	sess.lastErrors = result.Errors

	return result, snapshot(sess), nil
}

// ValidateReviewStep runs the review step's aggregate validator regardless of
// which step the session currently sits on, stamping the review step's flags.
// The submission orchestrator uses this as the validate-before-network gate,
// so a submit issued mid-wizard cannot reach the backend with incomplete
// data. The visible error map is only replaced when the session is actually
// on the review step.
func (s *FormService) ValidateReviewStep(sessionID string) (validation.Result, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return validation.Result{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	last := len(sess.steps) - 1
	result := validation.ForStep(sess.steps[last].ID, sess.data, sess.mode)
	sess.steps[last].IsValid = result.IsValid
	sess.steps[last].IsCompleted = result.IsValid
	if sess.currentStep == last {
		sess.lastErrors = result.Errors
	}

	return result, nil
}

// BeginSubmit flips the session's submitting flag, refusing when a submit is
// already pending. This is the cooperative re-submission guard.
func (s *FormService) BeginSubmit(sessionID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.submitting {
		return fmt.Errorf("%w for session %s", ErrSubmitInProgress, sessionID)
	}
	sess.submitting = true
	return nil
}

// EndSubmit clears the submitting flag.
func (s *FormService) EndSubmit(sessionID string) {
	sess, err := s.session(sessionID)
	if err != nil {
		return
	}
	sess.mu.Lock()
	sess.submitting = false
	sess.mu.Unlock()
}

// SessionInfo exposes the session fields the submission orchestrator needs.
type SessionInfo struct {
	Mode      models.FormMode
	OwnerID   string
	ProductID string
	Existing  *models.Product
	Data      models.FormData
}

// Info returns a copy of the orchestration-relevant session fields.
func (s *FormService) Info(sessionID string) (SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionInfo{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return SessionInfo{
		Mode:      sess.mode,
		OwnerID:   sess.ownerID,
		ProductID: sess.productID,
		Existing:  sess.existing,
		Data:      sess.data,
	}, nil
}

// ClearDraft cancels any pending draft write and removes the stored draft.
// Called after a successful create submission: there is nothing left to
// resume.
func (s *FormService) ClearDraft(sessionID string) {
	sess, err := s.session(sessionID)
	if err != nil {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.draftTimer != nil {
		sess.draftTimer.Stop()
		sess.draftTimer = nil
	}
	s.removeDraft(sess)
}

// RemoveSession drops a finished session.
func (s *FormService) RemoveSession(sessionID string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if ok {
		sess.mu.Lock()
		if sess.draftTimer != nil {
			sess.draftTimer.Stop()
			sess.draftTimer = nil
		}
		sess.mu.Unlock()
	}
}

func (s *FormService) session(sessionID string) (*formSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// scheduleDraftSave reschedules the debounced draft write: a pending timer
// is cancelled and replaced, so overlapping edits inside the debounce window
// collapse into a single write. The draft is snapshotted when the timer
// fires, not when it is scheduled, so the persisted timestamp and step
// reflect the state at the moment of the write. Caller holds sess.mu.
func (s *FormService) scheduleDraftSave(sess *formSession) {
	if sess.mode != models.FormModeCreate {
		return
	}

	if sess.draftTimer != nil {
		sess.draftTimer.Stop()
	}

	key := draftKey(sess.ownerID)

	sess.draftTimer = time.AfterFunc(s.cfg.DraftDebounce, func() {
		sess.mu.Lock()
		// A nil timer means the save was cancelled (Reset or ClearDraft)
		// after this callback was already in flight.
		if sess.draftTimer == nil {
			sess.mu.Unlock()
			return
		}
		draft := models.ProductDraft{
			Data:        sess.data,
			CurrentStep: sess.currentStep,
			Timestamp:   time.Now(),
		}
		sess.mu.Unlock()

		body, err := json.Marshal(draft)
		if err != nil {
			log.Printf("Failed to marshal draft for %s: %v", key, err)
			return
		}
		// Fire-and-forget: a failed save is logged and the form keeps
		// working in memory.
		if err := s.drafts.Set(key, string(body)); err != nil {
			log.Printf("Warning: failed to save draft %s: %v", key, err)
		}
	})
}

// loadDraft reads and validates the stored draft for an owner. Stale drafts
// are actively removed from storage.
func (s *FormService) loadDraft(ownerID string) (models.ProductDraft, bool) {
	key := draftKey(ownerID)

	raw, err := s.drafts.Get(key)
	if err != nil {
		log.Printf("Warning: failed to load draft %s: %v", key, err)
		return models.ProductDraft{}, false
	}
	if raw == "" {
		return models.ProductDraft{}, false
	}

	var draft models.ProductDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		log.Printf("Warning: discarding unreadable draft %s: %v", key, err)
		s.removeDraftKey(key)
		return models.ProductDraft{}, false
	}

	if time.Since(draft.Timestamp) >= s.cfg.DraftTTL {
		s.removeDraftKey(key)
		return models.ProductDraft{}, false
	}

	return draft, true
}

func (s *FormService) removeDraft(sess *formSession) {
	if sess.mode != models.FormModeCreate {
		return
	}
	s.removeDraftKey(draftKey(sess.ownerID))
}

func (s *FormService) removeDraftKey(key string) {
	if err := s.drafts.Remove(key); err != nil {
		log.Printf("Warning: failed to remove draft %s: %v", key, err)
	}
}

// applyPatch merges non-nil patch fields into the data. A category patch is
// the single mutation boundary for the selection set: it is deduplicated and
// refused outright when it would exceed the ceiling, so no caller can grow
// the set past MaxCategories.
func applyPatch(data *models.FormData, patch models.FormPatch) {
	if patch.Title != nil {
		data.Title = *patch.Title
	}
	if patch.Description != nil {
		data.Description = *patch.Description
	}
	if patch.CategoryIDs != nil {
		ids := dedupe(*patch.CategoryIDs)
		if len(ids) <= validation.MaxCategories {
			data.CategoryIDs = ids
		} else {
			log.Printf("Rejected category selection of %d entries (maximum %d)", len(ids), validation.MaxCategories)
		}
	}
	if patch.AvailableForSale != nil {
		data.AvailableForSale = *patch.AvailableForSale
	}
	if patch.AvailableForRent != nil {
		data.AvailableForRent = *patch.AvailableForRent
	}
	if patch.PurchasePrice != nil {
		data.PurchasePrice = *patch.PurchasePrice
	}
	if patch.RentPrice != nil {
		data.RentPrice = *patch.RentPrice
	}
	if patch.RentType != nil {
		data.RentType = *patch.RentType
	}
	if patch.Images != nil {
		data.Images = append([]string(nil), (*patch.Images)...)
	}
	if patch.TermsAccepted != nil {
		data.TermsAccepted = *patch.TermsAccepted
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func clampStep(step, count int) int {
	if step < 0 {
		return 0
	}
	if step >= count {
		return count - 1
	}
	return step
}

// snapshot builds the presentation-layer view of a session. Caller holds
// sess.mu (or exclusively owns the session).
func snapshot(sess *formSession) FormState {
	steps := append([]models.FormStep(nil), sess.steps...)
	errors := make(map[string]string, len(sess.lastErrors))
	for k, v := range sess.lastErrors {
		errors[k] = v
	}

	return FormState{
		SessionID:     sess.id,
		Mode:          sess.mode,
		ProductID:     sess.productID,
		CurrentStep:   sess.currentStep,
		Steps:         steps,
		Data:          sess.data,
		CanGoNext:     sess.steps[sess.currentStep].IsValid && sess.currentStep < len(sess.steps)-1,
		CanGoPrevious: sess.currentStep > 0,
		Errors:        errors,
	}
}
