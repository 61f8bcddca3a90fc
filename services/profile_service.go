package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"rpgTodoAPI/internal/progression"
	"rpgTodoAPI/internal/user"
)

const (
	MaxProfilePictureBytes = 5 << 20
	minUsernameLength      = 3
	maxUsernameLength      = 30
	maxBioLength           = 500
)

type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type ProfileService struct {
	db           *pgxpool.Pool
	levels       *progression.LevelTable
	achievements *AchievementService
	storage      ObjectStorage
	log          zerolog.Logger
}

func NewProfileService(db *pgxpool.Pool, levels *progression.LevelTable, achievements *AchievementService, storage ObjectStorage, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		db:           db,
		levels:       levels,
		achievements: achievements,
		storage:      storage,
		log:          log,
	}
}

const profileColumns = `id, auth_id, COALESCE(email, ''), username, bio, image_url, total_xp, current_level, created_at, updated_at`

func scanProfile(row pgx.Row) (*user.Profile, error) {
	p := &user.Profile{}
	err := row.Scan(&p.ID, &p.AuthID, &p.Email, &p.Username, &p.Bio, &p.ImageURL, &p.TotalXP, &p.CurrentLevel, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProfile creates the progression record for a new account with zero
// XP at level 1. It is idempotent: an existing record is returned with
// created=false.
func (s *ProfileService) CreateProfile(ctx context.Context, req *user.CreateProfileRequest) (*user.Profile, bool, error) {
	if strings.TrimSpace(req.AuthID) == "" {
		return nil, false, invalid("auth id is required")
	}

	username, err := normalizeUsername(req.Username)
	if err != nil {
		// Identity provider usernames are optional here; drop ones we reject.
		username = nil
	}

	query := `
	INSERT INTO user_profiles (id, auth_id, email, username, image_url, total_xp, current_level)
	VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), 0, 1)
	ON CONFLICT (auth_id) DO NOTHING
	RETURNING ` + profileColumns

	p, err := scanProfile(s.db.QueryRow(ctx, query, uuid.New(), req.AuthID, req.Email, username, req.ImageURL))
	switch {
	case err == nil:
		s.log.Info().Str("user_id", p.ID).Msg("profile created")
		return p, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		existing, err := s.getByAuthID(ctx, req.AuthID)
		return existing, false, err
	case isUniqueViolation(err):
		// Username collision: keep the account, leave the name unset.
		if username == nil {
			return nil, false, fmt.Errorf("failed to create profile: %w", err)
		}
		retry := *req
		retry.Username = ""
		return s.CreateProfile(ctx, &retry)
	default:
		return nil, false, fmt.Errorf("failed to create profile: %w", err)
	}
}

// SyncFromAuthProvider refreshes email and, when free, username from the
// identity provider.
func (s *ProfileService) SyncFromAuthProvider(ctx context.Context, authID, email, username string) error {
	tag, err := s.db.Exec(ctx, `
	UPDATE user_profiles
	SET email = COALESCE(NULLIF($2, ''), email), updated_at = NOW()
	WHERE auth_id = $1
	`, authID, email)
	if err != nil {
		return fmt.Errorf("failed to sync profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	name, err := normalizeUsername(username)
	if err != nil || name == nil {
		return nil
	}
	_, err = s.db.Exec(ctx, `UPDATE user_profiles SET username = $2 WHERE auth_id = $1`, authID, *name)
	if isUniqueViolation(err) {
		s.log.Warn().Str("auth_id", authID).Msg("username from identity provider already taken, keeping current")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to sync username: %w", err)
	}
	return nil
}

func (s *ProfileService) DeleteByAuthID(ctx context.Context, authID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM user_profiles WHERE auth_id = $1`, authID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (s *ProfileService) GetProfile(ctx context.Context, authID string) (*user.ProfileResponse, error) {
	p, err := s.getByAuthID(ctx, authID)
	if err != nil {
		return nil, err
	}

	earned, err := s.achievements.EarnedByUserID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return &user.ProfileResponse{
		Profile:      p,
		Achievements: earned,
		Level:        user.NewLevelInfo(s.levels, p.CurrentLevel, p.TotalXP),
	}, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, authID string, req *user.UpdateProfileRequest) (*user.Profile, error) {
	var username *string
	if req.Username != nil {
		name, err := normalizeUsername(*req.Username)
		if err != nil {
			return nil, err
		}
		if name == nil {
			return nil, invalid("username cannot be empty")
		}
		username = name
	}

	var bio *string
	if req.Bio != nil {
		b := strings.TrimSpace(*req.Bio)
		if utf8.RuneCountInString(b) > maxBioLength {
			return nil, invalid("bio must be at most %d characters", maxBioLength)
		}
		bio = &b
	}

	query := `
	UPDATE user_profiles
	SET username = COALESCE($2, username), bio = COALESCE($3, bio), updated_at = NOW()
	WHERE auth_id = $1
	RETURNING ` + profileColumns

	p, err := scanProfile(s.db.QueryRow(ctx, query, authID, username, bio))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}

// UploadProfilePicture stores the image in object storage and saves its URL.
func (s *ProfileService) UploadProfilePicture(ctx context.Context, authID, filename, contentType string, size int64, body io.Reader) (*user.Profile, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, invalid("file must be an image")
	}
	if size > MaxProfilePictureBytes {
		return nil, invalid("file must be at most %d MB", MaxProfilePictureBytes>>20)
	}

	userID, err := resolveUserID(ctx, s.db, authID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("profiles/%s/%s%s", userID, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	url, err := s.storage.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE user_profiles SET image_url = $2, updated_at = NOW()
	WHERE id = $1
	RETURNING ` + profileColumns

	p, err := scanProfile(s.db.QueryRow(ctx, query, userID, url))
	if err != nil {
		return nil, fmt.Errorf("failed to save profile picture: %w", err)
	}
	return p, nil
}

func (s *ProfileService) getByAuthID(ctx context.Context, authID string) (*user.Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE auth_id = $1`, authID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// normalizeUsername trims and validates a username. Empty input yields nil.
func normalizeUsername(raw string) (*string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return nil, nil
	}
	n := utf8.RuneCountInString(name)
	if n < minUsernameLength || n > maxUsernameLength {
		return nil, invalid("username must be %d-%d characters", minUsernameLength, maxUsernameLength)
	}
	return &name, nil
}
