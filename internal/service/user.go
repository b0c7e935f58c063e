package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
	"gorm.io/gorm"
)

const (
	subscriptionExists   = "Subscription on this author already exists!"
	subscriptionMissing  = "Subscription on this author not exists!"
	selfSubscription     = "You cannot subscribe to yourself!"
	wrongCurrentPassword = "Неверный пароль!"
)

type UserService struct {
	db         *gorm.DB
	auth       *AuthService
	aggregator *RelationAggregator
	recipes    *RecipeService
}

func NewUserService(db *gorm.DB, auth *AuthService, aggregator *RelationAggregator, recipes *RecipeService) *UserService {
	return &UserService{
		db:         db,
		auth:       auth,
		aggregator: aggregator,
		recipes:    recipes,
	}
}

// Register creates a user account.
func (s *UserService) Register(ctx context.Context, req *types.CreateUserRequest) (*types.CreatedUserResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	errs := validation.FieldErrors{}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		errs.Add("username", "A user with that username already exists.")
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(req.Email)).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		errs.Add("email", "A user with that email already exists.")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, NewFieldError("username", "A user with that username or email already exists.")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logging.Ctx(ctx).Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return &types.CreatedUserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

// List returns a page of users ordered by id.
func (s *UserService) List(ctx context.Context, viewerID uint, offset, limit int) ([]types.UserResponse, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	subscribed, err := s.aggregator.SubscribedAuthors(ctx, viewerID, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]types.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse(u, subscribed.Has(u.ID)))
	}
	return out, total, nil
}

// Get returns one user as seen by viewerID.
func (s *UserService) Get(ctx context.Context, viewerID, id uint) (*types.UserResponse, error) {
	user, err := s.user(ctx, id)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.aggregator.SubscribedAuthors(ctx, viewerID, []uint{user.ID})
	if err != nil {
		return nil, err
	}
	resp := userResponse(*user, subscribed.Has(user.ID))
	return &resp, nil
}

// SetPassword replaces the password after checking the current one.
func (s *UserService) SetPassword(ctx context.Context, userID uint, req *types.SetPasswordRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	if !s.auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return NewFieldError("current_password", wrongCurrentPassword)
	}

	hash, err := s.auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Subscriptions returns the authors viewerID follows, ordered by username.
// recipesLimit < 0 means no limit on the embedded recipes.
func (s *UserService) Subscriptions(ctx context.Context, viewerID uint, offset, limit, recipesLimit int) ([]types.SubscriptionResponse, int64, error) {
	following := s.db.WithContext(ctx).Model(&models.Subscription{}).Select("author_id").Where("user_id = ?", viewerID)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id IN (?)", following).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	err := s.db.WithContext(ctx).Where("id IN (?)", following).
		Order("username").Offset(offset).Limit(limit).
		Find(&authors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	out, err := s.subscriptionResponses(ctx, viewerID, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Subscribe makes viewerID follow authorID.
func (s *UserService) Subscribe(ctx context.Context, viewerID, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error) {
	author, err := s.user(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author.ID == viewerID {
		return nil, &ConflictError{Message: selfSubscription}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id = ?", viewerID, authorID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}
	if count > 0 {
		metrics.RecordRelationChange("subscription", "conflict")
		return nil, &ConflictError{Message: subscriptionExists}
	}

	sub := models.Subscription{UserID: viewerID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Omit("User", "Author").Create(&sub).Error; err != nil {
		if database.IsUniqueViolation(err) {
			metrics.RecordRelationChange("subscription", "conflict")
			return nil, &ConflictError{Message: subscriptionExists}
		}
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	metrics.RecordRelationChange("subscription", "created")

	out, err := s.subscriptionResponses(ctx, viewerID, []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Unsubscribe removes the subscription of viewerID to authorID.
func (s *UserService) Unsubscribe(ctx context.Context, viewerID, authorID uint) error {
	if _, err := s.user(ctx, authorID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", viewerID, authorID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		metrics.RecordRelationChange("subscription", "missing")
		return &ConflictError{Message: subscriptionMissing}
	}
	metrics.RecordRelationChange("subscription", "deleted")
	return nil
}

func (s *UserService) subscriptionResponses(ctx context.Context, viewerID uint, authors []models.User, recipesLimit int) ([]types.SubscriptionResponse, error) {
	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}

	subscribed, err := s.aggregator.SubscribedAuthors(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	counts, err := s.aggregator.RecipeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	byAuthor := make(map[uint][]types.RecipeShortResponse, len(authors))
	if len(ids) > 0 && recipesLimit != 0 {
		recipes, err := s.latestRecipes(ctx, ids, recipesLimit)
		if err != nil {
			return nil, err
		}
		for _, r := range recipes {
			byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], s.recipes.shortResponse(r))
		}
	}

	out := make([]types.SubscriptionResponse, 0, len(authors))
	for _, a := range authors {
		recipes := byAuthor[a.ID]
		if recipes == nil {
			recipes = []types.RecipeShortResponse{}
		}
		out = append(out, types.SubscriptionResponse{
			UserResponse: userResponse(a, subscribed.Has(a.ID)),
			Recipes:      recipes,
			RecipesCount: counts[a.ID],
		})
	}
	return out, nil
}

// latestRecipes returns the newest recipes of each author, at most limit per
// author when limit > 0. The cap is applied in SQL with ROW_NUMBER.
func (s *UserService) latestRecipes(ctx context.Context, authorIDs []uint, limit int) ([]models.Recipe, error) {
	q := s.db.WithContext(ctx).Where("author_id IN ?", authorIDs)
	if limit > 0 {
		ranked := s.db.Model(&models.Recipe{}).
			Select("id, ROW_NUMBER() OVER (PARTITION BY author_id ORDER BY created_at DESC, id DESC) AS rn").
			Where("author_id IN ?", authorIDs)
		q = s.db.WithContext(ctx).Where("id IN (?)",
			s.db.Table("(?) AS ranked", ranked).Select("id").Where("rn <= ?", limit))
	}

	var recipes []models.Recipe
	if err := q.Order("created_at DESC, id DESC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to load author recipes: %w", err)
	}
	return recipes, nil
}

func (s *UserService) user(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func userResponse(u models.User, subscribed bool) types.UserResponse {
	return types.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

// validateRequest runs struct validation and wraps field errors.
func validateRequest(req any) error {
	err := validation.ValidateStruct(req)
	if err == nil {
		return nil
	}
	var fields validation.FieldErrors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return err
}
