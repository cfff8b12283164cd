package projectdocs

import (
	"context"

	"github.com/code19m/errx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rise-and-shine/projectdocs/permission"
)

// SeasonInput names a season choice.
type SeasonInput struct {
	Name  string           `json:"name" params:"name" validate:"required,season_name"`
	Actor permission.Actor `json:"-"                  validate:"-"`
}

// AddSeasonOutput is the result of AddSeasonChoice. Unless Confirmed is set
// the message is advisory: the choice was potentially added.
type AddSeasonOutput struct {
	Message       string `json:"message"`
	AlreadyExists bool   `json:"already_exists"`
	Confirmed     bool   `json:"confirmed"`
}

// DeleteSeasonOutput is the result of DeleteSeasonChoice.
type DeleteSeasonOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AddSeasonChoice adds a choice to the season field. Admins only.
func (s *Service) AddSeasonChoice(ctx context.Context, in *SeasonInput) (_ *AddSeasonOutput, err error) {
	ctx, done := s.begin(ctx, OpAddSeasonChoice, attribute.String("season", in.Name))
	defer func() { done(err) }()

	if err = s.authorizeSeason(in); err != nil {
		return nil, err
	}

	res, err := s.seasons.AddSeasonChoice(ctx, in.Name)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return &AddSeasonOutput{
		Message:       res.Message,
		AlreadyExists: res.AlreadyExists,
		Confirmed:     res.Confirmed,
	}, nil
}

// DeleteSeasonChoice removes a choice from the season field once no project
// uses it. Admins only.
func (s *Service) DeleteSeasonChoice(ctx context.Context, in *SeasonInput) (_ *DeleteSeasonOutput, err error) {
	ctx, done := s.begin(ctx, OpDeleteSeasonChoice, attribute.String("season", in.Name))
	defer func() { done(err) }()

	if err = s.authorizeSeason(in); err != nil {
		return nil, err
	}

	res, err := s.seasons.DeleteSeasonChoice(ctx, in.Name)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return &DeleteSeasonOutput{Success: res.Success, Message: res.Message}, nil
}

func (s *Service) authorizeSeason(in *SeasonInput) error {
	if err := validate(in, in.Actor); err != nil {
		return err
	}
	return errx.Wrap(permission.AuthorizeSchemaChange(in.Actor))
}
