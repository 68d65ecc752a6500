package mail

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/shared"
)

// ChannelModel is the model name channels are referenced by from messages
const ChannelModel = "mail.channel"

// AggregateTypeChannel is the aggregate type of channels
const AggregateTypeChannel = ChannelModel

// Visibility decides who can see a channel and its messages
type Visibility string

const (
	VisibilityPublic  Visibility = "public"  // everyone
	VisibilityPrivate Visibility = "private" // members only
	VisibilityGroups  Visibility = "groups"  // holders of the authorized group
)

// IsValid reports whether v is a known visibility
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityGroups:
		return true
	}
	return false
}

var aliasRegex = regexp.MustCompile(`^[a-z0-9._+\-]+$`)

// Channel is a discussion group messages can be posted on
type Channel struct {
	shared.BaseAggregateRoot
	Name             string
	Description      string
	Visibility       Visibility
	GroupPublic      identity.Group // authorized group for VisibilityGroups
	AliasName        string
	MemberPartnerIDs []int64
}

// NewChannel creates a channel visible to employees, the default for new
// channels.
func NewChannel(name string) (*Channel, error) {
	c := &Channel{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Visibility:        VisibilityGroups,
		GroupPublic:       identity.GroupEmployee,
		MemberPartnerIDs:  make([]int64, 0),
	}
	if err := c.Rename(name); err != nil {
		return nil, err
	}
	return c, nil
}

// Rename changes the channel name
func (c *Channel) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_CHANNEL_NAME", "Channel name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_CHANNEL_NAME", "Channel name cannot exceed 200 characters")
	}
	c.Name = name
	c.Touch()
	return nil
}

// SetDescription changes the channel description
func (c *Channel) SetDescription(description string) {
	c.Description = description
	c.Touch()
}

// SetVisibility changes who can see the channel. The group is only kept
// for VisibilityGroups and defaults to employees.
func (c *Channel) SetVisibility(v Visibility, group identity.Group) error {
	if !v.IsValid() {
		return shared.NewDomainError("INVALID_VISIBILITY", "Visibility must be public, private or groups")
	}
	if v == VisibilityGroups {
		if group == "" {
			group = identity.GroupEmployee
		}
		if !group.IsValid() {
			return shared.NewDomainError("INVALID_GROUP", "Unknown group: "+group.String())
		}
		c.GroupPublic = group
	} else {
		c.GroupPublic = ""
	}
	c.Visibility = v
	c.Touch()
	return nil
}

// SetAlias sets the local part of the channel's inbound address
func (c *Channel) SetAlias(alias string) error {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if alias != "" && !aliasRegex.MatchString(alias) {
		return shared.NewDomainError("INVALID_ALIAS", "Alias may only contain lowercase letters, digits, dots, plus and hyphens")
	}
	c.AliasName = alias
	c.Touch()
	return nil
}

// AddMembers subscribes partners, ignoring duplicates
func (c *Channel) AddMembers(partnerIDs ...int64) {
	c.MemberPartnerIDs = mergeIDs(c.MemberPartnerIDs, partnerIDs)
	c.Touch()
}

// IsMember reports whether the partner is subscribed
func (c *Channel) IsMember(partnerID int64) bool {
	return slices.Contains(c.MemberPartnerIDs, partnerID)
}

// CanRead applies the channel visibility rule to a principal
func (c *Channel) CanRead(p *identity.Principal) bool {
	if p.IsAdmin() {
		return true
	}
	switch c.Visibility {
	case VisibilityPublic:
		return true
	case VisibilityPrivate:
		return c.IsMember(p.PartnerID())
	case VisibilityGroups:
		return c.GroupPublic != "" && p.HasGroup(c.GroupPublic)
	}
	return false
}

// CanWrite reports whether the principal may modify the channel: only
// employees, and only on channels they can see.
func (c *Channel) CanWrite(p *identity.Principal) bool {
	if p.IsAdmin() {
		return true
	}
	return p.IsEmployee() && c.CanRead(p)
}

// AsDocument returns the messaging view of the channel
func (c *Channel) AsDocument() *Document {
	return &Document{Model: ChannelModel, ResID: c.ID, Name: c.Name, AliasName: c.AliasName}
}

// ChannelRepository defines the interface for channel persistence
type ChannelRepository interface {
	Create(ctx context.Context, channel *Channel) error
	Update(ctx context.Context, channel *Channel) error
	FindByID(ctx context.Context, id int64) (*Channel, error)
	// ReadableIDs returns ids of channels that are public, private with the
	// partner as member, or restricted to one of the given groups.
	ReadableIDs(ctx context.Context, partnerID int64, groups []identity.Group) ([]int64, error)
	// AllIDs returns every channel id
	AllIDs(ctx context.Context) ([]int64, error)
}

// ChannelDocuments serves channels as message documents
type ChannelDocuments struct {
	repo ChannelRepository
}

// NewChannelDocuments creates the channel document provider
func NewChannelDocuments(repo ChannelRepository) *ChannelDocuments {
	return &ChannelDocuments{repo: repo}
}

// Model returns "mail.channel"
func (d *ChannelDocuments) Model() string {
	return ChannelModel
}

// Document loads a channel as a document
func (d *ChannelDocuments) Document(ctx context.Context, resID int64) (*Document, error) {
	channel, err := d.repo.FindByID(ctx, resID)
	if err != nil {
		return nil, err
	}
	return channel.AsDocument(), nil
}

// CanRead applies the channel read rule; missing channels are unreadable
func (d *ChannelDocuments) CanRead(ctx context.Context, p *identity.Principal, resID int64) (bool, error) {
	channel, err := d.find(ctx, resID)
	if err != nil || channel == nil {
		return false, err
	}
	return channel.CanRead(p), nil
}

// CanWrite applies the channel write rule; missing channels are not writable
func (d *ChannelDocuments) CanWrite(ctx context.Context, p *identity.Principal, resID int64) (bool, error) {
	channel, err := d.find(ctx, resID)
	if err != nil || channel == nil {
		return false, err
	}
	return channel.CanWrite(p), nil
}

// ReadableIDs lists the channels the principal can see
func (d *ChannelDocuments) ReadableIDs(ctx context.Context, p *identity.Principal) ([]int64, error) {
	if p.IsAdmin() {
		return d.repo.AllIDs(ctx)
	}
	return d.repo.ReadableIDs(ctx, p.PartnerID(), p.User.Groups)
}

func (d *ChannelDocuments) find(ctx context.Context, id int64) (*Channel, error) {
	channel, err := d.repo.FindByID(ctx, id)
	if err != nil {
		if shared.CodeOf(err) == shared.ErrNotFound.Code {
			return nil, nil
		}
		return nil, err
	}
	return channel, nil
}
