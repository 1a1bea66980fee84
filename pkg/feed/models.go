package feed

import (
	"fmt"
	"time"

	errs "likevault/pkg/errors"
)

// MediaKind distinguishes archivable photos from everything else
type MediaKind string

const (
	MediaKindPhoto MediaKind = "photo"
	MediaKindOther MediaKind = "other"
)

// LikedItemRef is the minimal reference returned by the paginated list call
type LikedItemRef struct {
	ID string
}

// Page is one page of the liked feed. An empty item list or an empty
// NextToken signals the end of the feed.
type Page struct {
	Items     []LikedItemRef
	NextToken string
}

// MediaAttachment is one media entry on an item, in declared order
type MediaAttachment struct {
	Kind      MediaKind
	SourceURL string
}

// ItemDetail is the full payload of one liked item, immutable once fetched
type ItemDetail struct {
	ID           string
	Text         string
	AuthorName   string
	AuthorHandle string
	Hashtags     []string
	CreatedAt    time.Time
	Media        []MediaAttachment
}

// createdAtLayout is the feed's v1.1 timestamp format ("Wed Oct 05 20:12:01 +0000 2022")
const createdAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

// Wire-level payloads. Optional fields are validated once here, at the
// API boundary, so the rest of the pipeline works with fully-typed values.

type listLikedResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
}

func (r *listLikedResponse) toPage() *Page {
	page := &Page{
		Items:     make([]LikedItemRef, 0, len(r.Data)),
		NextToken: r.Meta.NextToken,
	}
	for _, d := range r.Data {
		page.Items = append(page.Items, LikedItemRef{ID: d.ID})
	}
	return page
}

type statusResponse struct {
	IDStr     string `json:"id_str"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	User      struct {
		Name       string `json:"name"`
		ScreenName string `json:"screen_name"`
	} `json:"user"`
	Entities struct {
		Hashtags []struct {
			Text string `json:"text"`
		} `json:"hashtags"`
	} `json:"entities"`
	ExtendedEntities *struct {
		Media []struct {
			Type          string `json:"type"`
			MediaURLHTTPS string `json:"media_url_https"`
		} `json:"media"`
	} `json:"extended_entities"`
}

func (r *statusResponse) toDetail() (*ItemDetail, error) {
	createdAt, err := time.Parse(createdAtLayout, r.CreatedAt)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0,
			fmt.Sprintf("invalid created_at %q: %v", r.CreatedAt, err))
	}

	detail := &ItemDetail{
		ID:           r.IDStr,
		Text:         r.Text,
		AuthorName:   r.User.Name,
		AuthorHandle: r.User.ScreenName,
		CreatedAt:    createdAt,
	}

	for _, h := range r.Entities.Hashtags {
		detail.Hashtags = append(detail.Hashtags, h.Text)
	}

	// Items without an extended_entities block carry no media at all
	if r.ExtendedEntities != nil {
		for _, m := range r.ExtendedEntities.Media {
			kind := MediaKindOther
			if m.Type == "photo" {
				kind = MediaKindPhoto
			}
			detail.Media = append(detail.Media, MediaAttachment{
				Kind:      kind,
				SourceURL: m.MediaURLHTTPS,
			})
		}
	}

	return detail, nil
}
