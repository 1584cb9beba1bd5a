package security

import (
	"context"
	"strings"
)

// Role names mirror the stock editorial roles.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleEditor        Role = "editor"
	RoleAuthor        Role = "author"
	RoleContributor   Role = "contributor"
	RoleSubscriber    Role = "subscriber"
)

// Capabilities used by meta boxes and the admin screens.
const (
	CapRead               = "read"
	CapEditPosts          = "edit_posts"
	CapEditOthersPosts    = "edit_others_posts"
	CapEditPublishedPosts = "edit_published_posts"
	CapPublishPosts       = "publish_posts"
	CapEditPages          = "edit_pages"
	CapEditOthersPages    = "edit_others_pages"
	CapPublishPages       = "publish_pages"
	CapUploadFiles        = "upload_files"
	CapManageOptions      = "manage_options"
)

// User is the authenticated editor.
type User struct {
	ID    int64
	Login string
	Role  Role
	// Caps grants extra capabilities on top of the role.
	Caps []string
}

// Authorizer decides whether user may exercise capability on a post.
type Authorizer interface {
	Can(ctx context.Context, user User, capability string, postID int64) bool
}

// RoleAuthorizer maps roles to capability sets.
type RoleAuthorizer struct {
	roles map[Role]map[string]struct{}
}

var _ Authorizer = (*RoleAuthorizer)(nil)

// DefaultRoles returns the stock role -> capability table.
func DefaultRoles() map[Role][]string {
	author := []string{CapRead, CapEditPosts, CapEditPublishedPosts, CapPublishPosts, CapUploadFiles}
	editor := append(append([]string(nil), author...),
		CapEditOthersPosts, CapEditPages, CapEditOthersPages, CapPublishPages)
	admin := append(append([]string(nil), editor...), CapManageOptions)

	return map[Role][]string{
		RoleAdministrator: admin,
		RoleEditor:        editor,
		RoleAuthor:        author,
		RoleContributor:   {CapRead, CapEditPosts},
		RoleSubscriber:    {CapRead},
	}
}

// NewRoleAuthorizer builds an authorizer from a role table; nil uses
// DefaultRoles.
func NewRoleAuthorizer(roles map[Role][]string) *RoleAuthorizer {
	if roles == nil {
		roles = DefaultRoles()
	}
	a := &RoleAuthorizer{roles: make(map[Role]map[string]struct{}, len(roles))}
	for role, caps := range roles {
		set := make(map[string]struct{}, len(caps))
		for _, c := range caps {
			set[strings.TrimSpace(c)] = struct{}{}
		}
		a.roles[role] = set
	}
	return a
}

// Can reports whether the user's role or extra caps include capability.
func (a *RoleAuthorizer) Can(_ context.Context, user User, capability string, _ int64) bool {
	capability = strings.TrimSpace(capability)
	if capability == "" || user.ID == 0 {
		return false
	}
	for _, c := range user.Caps {
		if c == capability {
			return true
		}
	}
	_, ok := a.roles[user.Role][capability]
	return ok
}

// ParseRole validates a role name.
func ParseRole(name string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := DefaultRoles()[role]; !ok {
		return "", false
	}
	return role, true
}

type userKey struct{}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the user stored in ctx.
func UserFrom(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey{}).(User)
	return user, ok
}
