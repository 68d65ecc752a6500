package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SeedConfig holds the initial data written on first start
type SeedConfig struct {
	CompanyName    string
	AdminLogin     string
	AdminPassword  string
	AdminEmail     string
	CatchallDomain string
	CatchallAlias  string
}

// Bootstrapper writes the records the service cannot run without: the
// comment and note subtypes, an administrator and the catch-all
// parameters. Every step is skipped when its data already exists.
type Bootstrapper struct {
	subtypes  mail.SubtypeRepository
	companies identity.CompanyRepository
	partners  identity.PartnerRepository
	users     identity.UserRepository
	params    *ParameterService
}

// NewBootstrapper creates a new Bootstrapper
func NewBootstrapper(
	subtypes mail.SubtypeRepository,
	companies identity.CompanyRepository,
	partners identity.PartnerRepository,
	users identity.UserRepository,
	params *ParameterService,
) *Bootstrapper {
	return &Bootstrapper{
		subtypes:  subtypes,
		companies: companies,
		partners:  partners,
		users:     users,
		params:    params,
	}
}

// Run seeds the data described by cfg
func (b *Bootstrapper) Run(ctx context.Context, cfg SeedConfig) error {
	if err := b.ensureSubtypes(ctx); err != nil {
		return fmt.Errorf("seed subtypes: %w", err)
	}
	if err := b.ensureAdmin(ctx, cfg); err != nil {
		return fmt.Errorf("seed administrator: %w", err)
	}
	if err := b.params.SeedDefaults(ctx, map[string]string{
		mail.ParamCatchallDomain: cfg.CatchallDomain,
		mail.ParamCatchallAlias:  cfg.CatchallAlias,
	}); err != nil {
		return fmt.Errorf("seed parameters: %w", err)
	}
	return nil
}

func (b *Bootstrapper) ensureSubtypes(ctx context.Context) error {
	for _, subtype := range []*mail.Subtype{
		mail.NewSubtype(mail.SubtypeComment, "Discussions", false),
		mail.NewSubtype(mail.SubtypeNote, "Note", true),
	} {
		_, err := b.subtypes.FindByXMLID(ctx, subtype.XMLID)
		if err == nil {
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if err := b.subtypes.Create(ctx, subtype); err != nil {
			return err
		}
		logger.L(ctx).Info("Seeded message subtype", zap.String("xml_id", subtype.XMLID))
	}
	return nil
}

func (b *Bootstrapper) ensureAdmin(ctx context.Context, cfg SeedConfig) error {
	if cfg.AdminLogin == "" {
		return nil
	}
	exists, err := b.users.ExistsByLogin(ctx, cfg.AdminLogin)
	if err != nil || exists {
		return err
	}

	company, err := identity.NewCompany(cfg.CompanyName, "")
	if err != nil {
		return err
	}
	if err := b.companies.Create(ctx, company); err != nil {
		return err
	}
	partner, err := identity.NewPartner("Administrator", cfg.AdminEmail, company.ID)
	if err != nil {
		return err
	}
	if err := b.partners.Create(ctx, partner); err != nil {
		return err
	}
	user, err := identity.NewUser(cfg.AdminLogin, cfg.AdminPassword, partner.ID, company.ID)
	if err != nil {
		return err
	}
	for _, group := range []identity.Group{identity.GroupEmployee, identity.GroupSystem} {
		if err := user.AddGroup(group); err != nil {
			return err
		}
	}
	if err := b.users.Create(ctx, user); err != nil {
		return err
	}

	logger.L(ctx).Info("Seeded administrator",
		zap.String("login", user.Login),
		zap.Int64("user_id", user.ID),
	)
	return nil
}
