package links

import "time"

type Link struct {
	ShortCode      string
	OriginalURL    string
	CustomAlias    *string
	OwnerID        *string
	CreatedAt      time.Time
	ExpiresAt      *time.Time
	LastAccessedAt *time.Time
	AccessCount    int64
}

// ExpiredAt reports whether the link has an expiry strictly before now.
func (l *Link) ExpiredAt(now time.Time) bool {
	if l == nil || l.ExpiresAt == nil {
		return false
	}
	return l.ExpiresAt.UTC().Before(now.UTC())
}

func (l *Link) Alias() string {
	if l == nil || l.CustomAlias == nil {
		return ""
	}
	return *l.CustomAlias
}

type CreateLinkInput struct {
	URL         string
	OwnerID     string
	CustomAlias string
	ExpiresAt   *time.Time
}
