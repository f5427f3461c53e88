package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/devconnector/internal/entity"
	"anoa.com/devconnector/internal/modules/profile/dto"
	"anoa.com/devconnector/internal/modules/profile/repository"
	"anoa.com/devconnector/pkg/apperror"
	"anoa.com/devconnector/pkg/validator"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNoProfile keeps the 400 status the front end checks for.
var ErrNoProfile = apperror.New(http.StatusBadRequest, "There is no profile for this user", apperror.ErrNotFound)

type ProfileService interface {
	GetMine(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	ListAll(ctx context.Context) ([]*entity.Profile, error)
	Upsert(ctx context.Context, userID uuid.UUID, req dto.UpsertProfileRequest) (*entity.Profile, error)
	AddExperience(ctx context.Context, userID uuid.UUID, req dto.ExperienceRequest) (*entity.Profile, error)
	RemoveExperience(ctx context.Context, userID, expID uuid.UUID) (*entity.Profile, error)
	AddEducation(ctx context.Context, userID uuid.UUID, req dto.EducationRequest) (*entity.Profile, error)
	RemoveEducation(ctx context.Context, userID, eduID uuid.UUID) (*entity.Profile, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type profileService struct {
	repo repository.ProfileRepository
}

func NewProfileService(repo repository.ProfileRepository) ProfileService {
	return &profileService{repo: repo}
}

func (s *profileService) GetMine(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	return s.find(ctx, userID)
}

func (s *profileService) GetByUser(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	return s.find(ctx, userID)
}

func (s *profileService) ListAll(ctx context.Context) ([]*entity.Profile, error) {
	profiles, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

func (s *profileService) Upsert(ctx context.Context, userID uuid.UUID, req dto.UpsertProfileRequest) (*entity.Profile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = &entity.Profile{UserID: userID}
		applyProfileFields(profile, req)
		err = s.repo.Create(ctx, profile)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent create; update that row instead.
			return s.Upsert(ctx, userID, req)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to find profile: %w", err)
	default:
		applyProfileFields(profile, req)
		if err := s.repo.Update(ctx, profile); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	return s.find(ctx, userID)
}

func (s *profileService) AddExperience(ctx context.Context, userID uuid.UUID, req dto.ExperienceRequest) (*entity.Profile, error) {
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	profile, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.Experience = entity.Prepend(profile.Experience, entity.Experience{
		ID:          uuid.New(),
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		From:        from,
		To:          to,
		Current:     req.Current,
		Description: req.Description,
	})

	return s.save(ctx, profile)
}

func (s *profileService) RemoveExperience(ctx context.Context, userID, expID uuid.UUID) (*entity.Profile, error) {
	profile, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	var removed bool
	if profile.Experience, removed = entity.RemoveByID(profile.Experience, expID); !removed {
		return profile, nil
	}
	return s.save(ctx, profile)
}

func (s *profileService) AddEducation(ctx context.Context, userID uuid.UUID, req dto.EducationRequest) (*entity.Profile, error) {
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	profile, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.Education = entity.Prepend(profile.Education, entity.Education{
		ID:           uuid.New(),
		School:       req.School,
		Degree:       req.Degree,
		FieldOfStudy: req.FieldOfStudy,
		From:         from,
		To:           to,
		Current:      req.Current,
		Description:  req.Description,
	})

	return s.save(ctx, profile)
}

func (s *profileService) RemoveEducation(ctx context.Context, userID, eduID uuid.UUID) (*entity.Profile, error) {
	profile, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	var removed bool
	if profile.Education, removed = entity.RemoveByID(profile.Education, eduID); !removed {
		return profile, nil
	}
	return s.save(ctx, profile)
}

func (s *profileService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteAccount(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func (s *profileService) find(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoProfile
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) save(ctx context.Context, profile *entity.Profile) (*entity.Profile, error) {
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// ParseSkills splits a comma separated list, trimming each entry and
// dropping empty ones.
func ParseSkills(raw string) []string {
	skills := make([]string, 0)
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

func applyProfileFields(p *entity.Profile, req dto.UpsertProfileRequest) {
	setIfPresent(&p.Company, req.Company)
	setIfPresent(&p.Website, req.Website)
	setIfPresent(&p.Location, req.Location)
	setIfPresent(&p.Bio, req.Bio)
	setIfPresent(&p.GithubUsername, req.GithubUsername)
	if status := strings.TrimSpace(req.Status); status != "" {
		p.Status = status
	}
	if skills := ParseSkills(req.Skills); len(skills) > 0 {
		p.Skills = datatypes.JSONSlice[string](skills)
	}

	social := p.Social.Data()
	setIfPresent(&social.YouTube, req.YouTube)
	setIfPresent(&social.Twitter, req.Twitter)
	setIfPresent(&social.Facebook, req.Facebook)
	setIfPresent(&social.LinkedIn, req.LinkedIn)
	setIfPresent(&social.Instagram, req.Instagram)
	p.Social = datatypes.NewJSONType(social)
}

func setIfPresent(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func parseRange(fromRaw, toRaw string) (time.Time, *time.Time, error) {
	from, err := validator.ParseDate(fromRaw)
	if err != nil {
		return time.Time{}, nil, apperror.BadRequest("From date is required")
	}
	if toRaw == "" {
		return from, nil, nil
	}
	to, err := validator.ParseDate(toRaw)
	if err != nil {
		return time.Time{}, nil, apperror.BadRequest("to must be a valid date")
	}
	return from, &to, nil
}
