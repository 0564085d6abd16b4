package transfer

import "time"

// PostCreation carries everything needed to materialize a post. For
// pay-per-post checkouts it is serialized into the payment intent and
// replayed when the webhook confirms payment.
type PostCreation struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Hashtags        string     `json:"hashtags"`
	Tags            string     `json:"tags"`
	PostType        string     `json:"post_type"`
	PrivacyStatus   string     `json:"privacy_status"`
	DisableComments bool       `json:"disable_comments"`
	ShareToFeed     bool       `json:"share_to_feed"`
	MediaURL        string     `json:"media_url"`
	ScheduledTime   *time.Time `json:"scheduled_time,omitempty"`
	AccountIDs      []int64    `json:"account_ids"`
}
