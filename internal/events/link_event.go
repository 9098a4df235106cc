package events

const (
	TypeLinkCreated  = "link.created"
	TypeLinkUpdated  = "link.updated"
	TypeLinkDeleted  = "link.deleted"
	TypeLinksExpired = "links.expired"
)

// LinkEvent is emitted after a link lifecycle change has been committed.
// For links.expired, ShortCode is empty and Count carries the number of
// purged links.
type LinkEvent struct {
	EventID     string `json:"eventId"`
	Type        string `json:"type"`
	ShortCode   string `json:"shortCode,omitempty"`
	CustomAlias string `json:"customAlias,omitempty"`
	OriginalURL string `json:"originalUrl,omitempty"`
	Count       int64  `json:"count,omitempty"`
	OccurredAt  string `json:"occurredAt"`
}

// Key returns the partitioning key for the event.
func (e LinkEvent) Key() string {
	if e.ShortCode != "" {
		return e.ShortCode
	}
	return e.Type
}
