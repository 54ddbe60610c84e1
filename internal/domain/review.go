package domain

// Review is server-owned; the gateway only reads it back.
type Review struct {
	ID            string
	ListingID     string
	UserName      string
	Rating        int
	Comment       string
	Images        []string // raw stored paths; resolve before display
	OwnerFeedback *string
}

// Image attachment limits, enforced at selection time so a draft can never
// reach submission with an invalid set.
const (
	MaxReviewImages = 5
	MaxImageBytes   = 5 << 20 // 5 MiB
)

// AcceptedImageTypes are the MIME types a review image may carry.
var AcceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// ImageUpload is one attached file in a draft.
type ImageUpload struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// ReviewDraft is the in-progress review being composed.
type ReviewDraft struct {
	Rating  int
	Comment string
	Images  []ImageUpload
}

// NewReviewDraft returns the draft the form mounts with.
func NewReviewDraft() ReviewDraft {
	return ReviewDraft{Rating: 5}
}
