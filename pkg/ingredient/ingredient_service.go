package ingredient

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"kitchen-ledger/domain"
	"kitchen-ledger/entities"
	"kitchen-ledger/internal/utils"
	"kitchen-ledger/internal/utils/mailing"
	"kitchen-ledger/internal/utils/storage"
	"kitchen-ledger/pkg/user"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const imageFolder = "ingredients"

type (
	IngredientService interface {
		AddIngredient(ctx context.Context, req domain.CreateIngredientRequest, userID string) (domain.IngredientResponse, error)
		UpdateIngredient(ctx context.Context, id string, req domain.UpdateIngredientRequest, userID string) (domain.IngredientResponse, error)
		DeleteIngredient(ctx context.Context, id string, userID string) error
		GetIngredients(ctx context.Context, userID string, filter domain.IngredientFilter) ([]domain.IngredientResponse, int64, error)
		GetIngredientByID(ctx context.Context, id string, userID string) (domain.IngredientResponse, error)
		UploadIngredientImage(ctx context.Context, id string, req domain.UploadIngredientImageRequest, userID string) (domain.IngredientResponse, error)

		AddStock(ctx context.Context, id string, amount string, userID string) (domain.StockAdjustmentResponse, error)
		DeductStock(ctx context.Context, id string, amount string, userID string) (domain.StockAdjustmentResponse, error)

		StockNotifier
	}

	// StockNotifier alerts owners about deductions made outside this service, such as baking.
	StockNotifier interface {
		NotifyIfLow(ctx context.Context, before float64, ingredient *entities.Ingredient)
	}

	ingredientService struct {
		ingredientRepository IngredientRepository
		userRepository       user.UserRepository
		s3                   storage.AwsS3
		mailer               mailing.Mailer
	}
)

func NewIngredientService(
	ingredientRepository IngredientRepository,
	userRepository user.UserRepository,
	s3 storage.AwsS3,
	mailer mailing.Mailer,
) IngredientService {
	return &ingredientService{
		ingredientRepository: ingredientRepository,
		userRepository:       userRepository,
		s3:                   s3,
		mailer:               mailer,
	}
}

func (s *ingredientService) AddIngredient(ctx context.Context, req domain.CreateIngredientRequest, userID string) (domain.IngredientResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.IngredientResponse{}, domain.ErrParseUUID
	}

	if req.Quantity == nil || *req.Quantity < 0 {
		return domain.IngredientResponse{}, domain.ErrInvalidQuantity
	}
	if req.Cost == nil || !validCost(*req.Cost) {
		return domain.IngredientResponse{}, domain.ErrInvalidCost
	}
	if req.LowStockThreshold < 0 {
		return domain.IngredientResponse{}, domain.ErrInvalidThreshold
	}

	expirationDate, err := parseDate(req.ExpirationDate)
	if err != nil {
		return domain.IngredientResponse{}, err
	}

	ingredient := &entities.Ingredient{
		ID:                uuid.New(),
		UserID:            userUUID,
		Name:              strings.TrimSpace(req.Name),
		Quantity:          *req.Quantity,
		Unit:              req.Unit,
		Cost:              req.Cost.Round(2),
		ExpirationDate:    expirationDate,
		LowStockThreshold: req.LowStockThreshold,
	}

	if err := s.ingredientRepository.CreateIngredient(ctx, ingredient); err != nil {
		return domain.IngredientResponse{}, err
	}

	return toIngredientResponse(ingredient), nil
}

func (s *ingredientService) UpdateIngredient(ctx context.Context, id string, req domain.UpdateIngredientRequest, userID string) (domain.IngredientResponse, error) {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return domain.IngredientResponse{}, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Unit != nil {
		fields["unit"] = *req.Unit
	}
	if req.Cost != nil {
		if !validCost(*req.Cost) {
			return domain.IngredientResponse{}, domain.ErrInvalidCost
		}
		fields["cost"] = req.Cost.Round(2)
	}
	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			return domain.IngredientResponse{}, domain.ErrInvalidThreshold
		}
		fields["low_stock_threshold"] = *req.LowStockThreshold
	}
	if req.ExpirationDate != nil {
		expirationDate, err := parseDate(*req.ExpirationDate)
		if err != nil {
			return domain.IngredientResponse{}, err
		}
		fields["expiration_date"] = expirationDate
	}

	if err := s.ingredientRepository.UpdateIngredientFields(ctx, id, userID, fields); err != nil {
		return domain.IngredientResponse{}, notFound(err)
	}

	return s.GetIngredientByID(ctx, id, userID)
}

func (s *ingredientService) DeleteIngredient(ctx context.Context, id string, userID string) error {
	ingredient, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.ingredientRepository.DeleteIngredient(ctx, id, userID); err != nil {
		return notFound(err)
	}

	if ingredient.ImageURL != "" && s.s3 != nil {
		if objectKey := s.s3.GetObjectKeyFromLink(ingredient.ImageURL); objectKey != "" {
			if err := s.s3.DeleteFile(ctx, objectKey); err != nil {
				log.Warnf("failed to delete image %s of ingredient %s: %v", objectKey, id, err)
			}
		}
	}
	return nil
}

func (s *ingredientService) GetIngredients(ctx context.Context, userID string, filter domain.IngredientFilter) ([]domain.IngredientResponse, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	ingredients, count, err := s.ingredientRepository.GetIngredients(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	response := make([]domain.IngredientResponse, 0, len(ingredients))
	for _, item := range ingredients {
		response = append(response, toIngredientResponse(item))
	}

	return response, count, nil
}

func (s *ingredientService) GetIngredientByID(ctx context.Context, id string, userID string) (domain.IngredientResponse, error) {
	ingredient, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return domain.IngredientResponse{}, err
	}
	return toIngredientResponse(ingredient), nil
}

func (s *ingredientService) UploadIngredientImage(ctx context.Context, id string, req domain.UploadIngredientImageRequest, userID string) (domain.IngredientResponse, error) {
	ingredient, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return domain.IngredientResponse{}, err
	}

	if s.s3 == nil {
		return domain.IngredientResponse{}, domain.ErrImageStorageDisabled
	}

	imageURL, err := s.s3.UploadFile(ctx, imageFolder, req.Image)
	if err != nil {
		return domain.IngredientResponse{}, err
	}

	if err := s.ingredientRepository.UpdateIngredientFields(ctx, id, userID, map[string]interface{}{"image_url": imageURL}); err != nil {
		return domain.IngredientResponse{}, notFound(err)
	}

	if ingredient.ImageURL != "" {
		if objectKey := s.s3.GetObjectKeyFromLink(ingredient.ImageURL); objectKey != "" {
			if err := s.s3.DeleteFile(ctx, objectKey); err != nil {
				log.Warnf("failed to delete previous image %s: %v", objectKey, err)
			}
		}
	}

	ingredient.ImageURL = imageURL
	return toIngredientResponse(ingredient), nil
}

func (s *ingredientService) AddStock(ctx context.Context, id string, amount string, userID string) (domain.StockAdjustmentResponse, error) {
	return s.adjust(ctx, id, amount, userID, Add)
}

func (s *ingredientService) DeductStock(ctx context.Context, id string, amount string, userID string) (domain.StockAdjustmentResponse, error) {
	return s.adjust(ctx, id, amount, userID, Deduct)
}

// adjust checks existence before the amount, then applies the change under a row lock.
func (s *ingredientService) adjust(ctx context.Context, id string, rawAmount string, userID string, op Operation) (domain.StockAdjustmentResponse, error) {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return domain.StockAdjustmentResponse{}, err
	}

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return domain.StockAdjustmentResponse{}, err
	}

	var before float64
	updated, err := s.ingredientRepository.AdjustQuantity(ctx, id, userID, func(current *entities.Ingredient) (float64, error) {
		before = current.Quantity
		return ApplyAdjustment(current.Quantity, amount, op)
	})
	if err != nil {
		return domain.StockAdjustmentResponse{}, notFound(err)
	}

	if op == Deduct {
		s.NotifyIfLow(ctx, before, updated)
	}

	return domain.StockAdjustmentResponse{
		ID:          updated.ID.String(),
		Name:        updated.Name,
		NewQuantity: updated.Quantity,
	}, nil
}

func (s *ingredientService) getOwned(ctx context.Context, id string, userID string) (*entities.Ingredient, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrIngredientNotFound
	}
	ingredient, err := s.ingredientRepository.GetIngredientByID(ctx, id, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return ingredient, nil
}

// NotifyIfLow mails the owner when a deduction took the quantity from above the threshold
// to at or below it.
func (s *ingredientService) NotifyIfLow(ctx context.Context, before float64, ingredient *entities.Ingredient) {
	if crossedThreshold(before, ingredient) {
		s.notifyLowStock(ctx, ingredient)
	}
}

func crossedThreshold(before float64, ingredient *entities.Ingredient) bool {
	threshold := ingredient.LowStockThreshold
	return threshold > 0 && before > threshold && ingredient.Quantity <= threshold
}

// notifyLowStock mails the owner. Failures are logged, the adjustment already committed.
func (s *ingredientService) notifyLowStock(ctx context.Context, ingredient *entities.Ingredient) {
	if s.mailer == nil || s.userRepository == nil {
		return
	}

	owner, err := s.userRepository.GetUserByID(ctx, ingredient.UserID.String())
	if err != nil {
		log.Errorf("low stock alert: failed to load owner of ingredient %s: %v", ingredient.ID, err)
		return
	}

	body, err := mailing.RenderLowStock(mailing.LowStockData{
		Username:   owner.Username,
		Ingredient: ingredient.Name,
		Quantity:   formatQuantity(ingredient.Quantity),
		Threshold:  formatQuantity(ingredient.LowStockThreshold),
		Unit:       ingredient.Unit,
		AppURL:     utils.GetConfig("APP_URL"),
	})
	if err != nil {
		log.Errorf("low stock alert: failed to render mail: %v", err)
		return
	}

	if err := s.mailer.SendMail(owner.Email, mailing.LowStockSubject(ingredient.Name), body); err != nil {
		log.Errorf("low stock alert: failed to send mail to %s: %v", owner.Email, err)
		return
	}
	log.Infof("low stock alert sent for ingredient %s", ingredient.ID)
}

// costCeiling is the first value a numeric(8,2) column cannot hold.
var costCeiling = decimal.NewFromInt(1_000_000)

func validCost(cost decimal.Decimal) bool {
	rounded := cost.Round(2)
	return !rounded.IsNegative() && rounded.LessThan(costCeiling)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrIngredientNotFound
	}
	return err
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return nil, domain.ErrInvalidExpirationDate
	}
	return &date, nil
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func toIngredientResponse(ingredient *entities.Ingredient) domain.IngredientResponse {
	res := domain.IngredientResponse{
		ID:                ingredient.ID.String(),
		Name:              ingredient.Name,
		Quantity:          ingredient.Quantity,
		Unit:              ingredient.Unit,
		Cost:              ingredient.Cost.InexactFloat64(),
		LowStockThreshold: ingredient.LowStockThreshold,
		IsLowStock:        ingredient.IsLowStock(),
		ImageURL:          ingredient.ImageURL,
	}
	if ingredient.ExpirationDate != nil {
		date := ingredient.ExpirationDate.Format(domain.DateLayout)
		res.ExpirationDate = &date
	}
	if !ingredient.UpdatedAt.IsZero() {
		updatedAt := ingredient.UpdatedAt
		res.UpdatedAt = &updatedAt
	}
	return res
}
