package mail

import (
	"context"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ChannelService handles channel operations
type ChannelService struct {
	channels mail.ChannelRepository
	partners identity.PartnerRepository
}

// NewChannelService creates a new ChannelService
func NewChannelService(channels mail.ChannelRepository, partners identity.PartnerRepository) *ChannelService {
	return &ChannelService{channels: channels, partners: partners}
}

// Create creates a channel; the creator is subscribed to it. Only employees
// may create channels.
func (s *ChannelService) Create(ctx context.Context, p *identity.Principal, req CreateChannelRequest) (*ChannelResponse, error) {
	if !p.IsEmployee() {
		return nil, channelDenied("create")
	}

	channel, err := mail.NewChannel(req.Name)
	if err != nil {
		return nil, err
	}
	channel.SetDescription(req.Description)
	if req.Visibility != "" {
		if err := channel.SetVisibility(mail.Visibility(req.Visibility), identity.Group(req.GroupPublic)); err != nil {
			return nil, err
		}
	}
	if err := channel.SetAlias(req.AliasName); err != nil {
		return nil, err
	}
	if err := s.checkPartners(ctx, req.MemberIDs); err != nil {
		return nil, err
	}
	channel.AddMembers(p.PartnerID())
	channel.AddMembers(req.MemberIDs...)

	if err := s.channels.Create(ctx, channel); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Channel created",
		zap.Int64("channel_id", channel.ID),
		zap.String("visibility", string(channel.Visibility)),
	)
	resp := ToChannelResponse(channel)
	return &resp, nil
}

// Get returns a channel the principal can read
func (s *ChannelService) Get(ctx context.Context, p *identity.Principal, id int64) (*ChannelResponse, error) {
	channel, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !channel.CanRead(p) {
		return nil, channelDenied("read", id)
	}
	resp := ToChannelResponse(channel)
	return &resp, nil
}

// Update modifies a channel the principal can write
func (s *ChannelService) Update(ctx context.Context, p *identity.Principal, id int64, req UpdateChannelRequest) (*ChannelResponse, error) {
	channel, err := s.writable(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := channel.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		channel.SetDescription(*req.Description)
	}
	if req.Visibility != nil || req.GroupPublic != nil {
		visibility := channel.Visibility
		if req.Visibility != nil {
			visibility = mail.Visibility(*req.Visibility)
		}
		group := channel.GroupPublic
		if req.GroupPublic != nil {
			group = identity.Group(*req.GroupPublic)
		}
		if err := channel.SetVisibility(visibility, group); err != nil {
			return nil, err
		}
	}
	if req.AliasName != nil {
		if err := channel.SetAlias(*req.AliasName); err != nil {
			return nil, err
		}
	}

	if err := s.channels.Update(ctx, channel); err != nil {
		return nil, err
	}
	resp := ToChannelResponse(channel)
	return &resp, nil
}

// AddMembers subscribes partners to a channel the principal can write
func (s *ChannelService) AddMembers(ctx context.Context, p *identity.Principal, id int64, partnerIDs []int64) (*ChannelResponse, error) {
	channel, err := s.writable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkPartners(ctx, partnerIDs); err != nil {
		return nil, err
	}
	channel.AddMembers(partnerIDs...)
	if err := s.channels.Update(ctx, channel); err != nil {
		return nil, err
	}
	resp := ToChannelResponse(channel)
	return &resp, nil
}

// ReadableIDs lists the channels the principal can read
func (s *ChannelService) ReadableIDs(ctx context.Context, p *identity.Principal) ([]int64, error) {
	return mail.NewChannelDocuments(s.channels).ReadableIDs(ctx, p)
}

func (s *ChannelService) writable(ctx context.Context, p *identity.Principal, id int64) (*mail.Channel, error) {
	channel, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !channel.CanWrite(p) {
		return nil, channelDenied("write", id)
	}
	return channel, nil
}

func (s *ChannelService) checkPartners(ctx context.Context, ids []int64) error {
	want := uniqueIDs(ids)
	if len(want) == 0 {
		return nil
	}
	found, err := s.partners.FindByIDs(ctx, want)
	if err != nil {
		return err
	}
	if len(found) != len(want) {
		return shared.NewDomainError("PARTNER_NOT_FOUND", "One or more partners do not exist")
	}
	return nil
}

func channelDenied(op string, ids ...int64) error {
	return mail.AccessDenied(mail.Operation(op), mail.ChannelModel, ids...)
}
