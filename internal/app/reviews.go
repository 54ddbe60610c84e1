package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"campus_market/internal/domain"
)

// ReviewWorkflow is the client-side state machine for composing and
// submitting one review against one listing. It validates before it ever
// touches the network, so a draft can never reach submission in an invalid
// state. Like Session, it is single-owner page state.
type ReviewWorkflow struct {
	reviews   domain.ReviewsClient
	ids       domain.IdentityProvider
	listingID string

	draft      domain.ReviewDraft
	list       []domain.Review
	submitting bool
	errMsg     string
}

func NewReviewWorkflow(rc domain.ReviewsClient, ids domain.IdentityProvider, listingID string) *ReviewWorkflow {
	return &ReviewWorkflow{
		reviews:   rc,
		ids:       ids,
		listingID: listingID,
		draft:     domain.NewReviewDraft(),
	}
}

// Load fetches the listing's existing reviews into the workflow's local list.
func (w *ReviewWorkflow) Load(ctx context.Context) error {
	recs, err := w.reviews.ListReviews(ctx, w.listingID)
	if err != nil {
		w.errMsg = "Failed to load reviews."
		return err
	}
	w.errMsg = ""
	w.list = mapReviews(w.listingID, recs)
	return nil
}

func (w *ReviewWorkflow) SetRating(r int)           { w.draft.Rating = r }
func (w *ReviewWorkflow) SetComment(c string)       { w.draft.Comment = c }
func (w *ReviewWorkflow) Draft() domain.ReviewDraft { return w.draft }
func (w *ReviewWorkflow) Reviews() []domain.Review  { return w.list }
func (w *ReviewWorkflow) Submitting() bool          { return w.submitting }
func (w *ReviewWorkflow) Err() string               { return w.errMsg }

// AttachImages validates a selection and attaches it to the draft.
// Acceptance is all-or-nothing: the selection replaces the draft's images
// only when every file passes; any violation clears the attachment entirely.
func (w *ReviewWorkflow) AttachImages(files []domain.ImageUpload) error {
	if len(files) > domain.MaxReviewImages {
		w.draft.Images = nil
		w.errMsg = domain.ErrTooManyImages.Error()
		return domain.ErrTooManyImages
	}
	for _, f := range files {
		if !domain.AcceptedImageTypes[strings.ToLower(f.ContentType)] || f.Size > domain.MaxImageBytes {
			w.draft.Images = nil
			w.errMsg = domain.ErrImageRejected.Error()
			return domain.ErrImageRejected
		}
	}
	w.errMsg = ""
	w.draft.Images = files
	return nil
}

// validate runs the eligibility checks in order, short-circuiting on the
// first failure.
func (w *ReviewWorkflow) validate(ctx context.Context) (domain.Identity, error) {
	id, ok := w.ids.Current(ctx)
	if !ok {
		return domain.Identity{}, domain.ErrNotAuthenticated
	}
	if id.Role != domain.RoleStudent {
		return domain.Identity{}, domain.ErrNotAuthorized
	}
	comment := strings.TrimSpace(w.draft.Comment)
	if comment == "" {
		return domain.Identity{}, domain.ErrEmptyComment
	}
	if len([]rune(comment)) < 10 {
		return domain.Identity{}, domain.ErrCommentTooShort
	}
	if w.draft.Rating < 1 || w.draft.Rating > 5 {
		return domain.Identity{}, domain.ErrInvalidRating
	}
	return id, nil
}

// Submit validates the draft, posts it, and on success resets the draft and
// merges the new review into the local list. On failure the draft is kept so
// the user can correct it, and the error message is retained for display.
func (w *ReviewWorkflow) Submit(ctx context.Context) error {
	id, err := w.validate(ctx)
	if err != nil {
		w.errMsg = err.Error()
		return err
	}

	w.submitting = true
	defer func() { w.submitting = false }()

	comment := strings.TrimSpace(w.draft.Comment)
	if _, err := w.reviews.AddReview(ctx, domain.ReviewSubmission{
		ListingID: w.listingID,
		UserID:    id.ID,
		Rating:    w.draft.Rating,
		Comment:   comment,
		Images:    w.draft.Images,
	}); err != nil {
		w.errMsg = displayError(err)
		return err
	}

	log.Info().Str("listing", w.listingID).Int("rating", w.draft.Rating).Msg("review submitted")

	// merge the accepted review into the locally held list; the server copy
	// is refetched lazily on the next Load
	w.list = append([]domain.Review{{
		ListingID: w.listingID,
		UserName:  id.Name,
		Rating:    w.draft.Rating,
		Comment:   comment,
	}}, w.list...)

	w.draft = domain.NewReviewDraft()
	w.errMsg = ""
	return nil
}

// displayError converts workflow errors into the message shown to the user.
func displayError(err error) string {
	switch e := err.(type) {
	case *domain.RejectionError:
		return e.Error()
	case *domain.TransportError:
		return "Error submitting review. Please try again."
	default:
		return err.Error()
	}
}
