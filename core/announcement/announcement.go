// Package announcement manages school-wide notices targeted at one or
// more roles. Readers only ever see the latest few addressed to them.
package announcement

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/access"
	"github.com/Wrug-hu/school-portal/core/principal"
)

// FeedLimit caps how many announcements a reader is shown, newest first.
const FeedLimit = 10

var ErrNotFound = errors.New("announcement not found")

type Announcement struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	TargetRoles []principal.Role `json:"target_roles"`
	AuthorID    string           `json:"author_id"`
	CreatedAt   time.Time        `json:"created_at"` // UTC
}

// VisibleTo reports whether the announcement is addressed to the role.
func (a Announcement) VisibleTo(role principal.Role) bool {
	for _, r := range a.TargetRoles {
		if r == role {
			return true
		}
	}
	return false
}

type NewAnnouncement struct {
	Title       string           `json:"title" validate:"required"`
	Content     string           `json:"content" validate:"required"`
	TargetRoles []principal.Role `json:"target_roles" validate:"required,min=1,dive,portalrole"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	for i, role := range na.TargetRoles {
		na.TargetRoles[i] = principal.Role(core.CleanString(role.String(), true /* lower */))
	}
	return validate.Struct(na)
}

// QueryFilter scopes announcement reads to one audience role.
type QueryFilter struct {
	Role  principal.Role
	Limit int
}

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		// QueryAnnouncements returns matches newest first, capped at Limit
		// when set.
		QueryAnnouncements(ctx context.Context, filter QueryFilter) ([]Announcement, error)
	}

	Service interface {
		// Create publishes an announcement authored by the caller.
		Create(ctx context.Context, ident principal.Identity, na NewAnnouncement) (Announcement, error)
		// Feed returns the latest announcements addressed to the role.
		Feed(ctx context.Context, role principal.Role) ([]Announcement, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ident principal.Identity, na NewAnnouncement) (Announcement, error) {
	err := access.Authorize(ident, access.Request{
		Action: access.ActionAnnouncementCreate,
		Owner:  ident.Principal.ID,
	})
	if err != nil {
		return Announcement{}, err
	}
	a := Announcement{
		Title:       na.Title,
		Content:     na.Content,
		TargetRoles: na.TargetRoles,
		AuthorID:    ident.Principal.ID,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateAnnouncement(ctx, a)
}

func (svc *service) Feed(ctx context.Context, role principal.Role) ([]Announcement, error) {
	return svc.repo.QueryAnnouncements(ctx, QueryFilter{Role: role, Limit: FeedLimit})
}
