package ingredient

import (
	"context"
	"errors"
	"mime/multipart"
	"sync"
	"testing"

	"kitchen-ledger/domain"
	"kitchen-ledger/entities"
	"kitchen-ledger/internal/testdb"
	"kitchen-ledger/pkg/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendMail(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return m.err
}

type fakeS3 struct {
	uploaded []string
	deleted  []string
}

func (f *fakeS3) UploadFile(_ context.Context, folder string, file *multipart.FileHeader) (string, error) {
	key := folder + "/" + file.Filename
	f.uploaded = append(f.uploaded, key)
	return "https://pantry.s3.test.amazonaws.com/" + key, nil
}

func (f *fakeS3) DeleteFile(_ context.Context, objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeS3) GetObjectKeyFromLink(link string) string {
	const prefix = "https://pantry.s3.test.amazonaws.com/"
	if len(link) > len(prefix) && link[:len(prefix)] == prefix {
		return link[len(prefix):]
	}
	return ""
}

type fixture struct {
	db      *gorm.DB
	svc     IngredientService
	repo    IngredientRepository
	mailer  *fakeMailer
	s3      *fakeS3
	baker   *entities.User
	another *entities.User
}

func newFixture(t *testing.T) *fixture {
	db := testdb.New(t)
	users := user.NewUserRepository(db)

	baker := &entities.User{Username: "baker", Email: "baker@example.com", Password: "x"}
	another := &entities.User{Username: "otheruser", Email: "other@example.com", Password: "x"}
	require.NoError(t, users.CreateUser(context.Background(), baker))
	require.NoError(t, users.CreateUser(context.Background(), another))

	repo := NewIngredientRepository(db)
	mailer := &fakeMailer{}
	s3 := &fakeS3{}
	return &fixture{
		db:      db,
		svc:     NewIngredientService(repo, users, s3, mailer),
		repo:    repo,
		mailer:  mailer,
		s3:      s3,
		baker:   baker,
		another: another,
	}
}

func (f *fixture) create(t *testing.T, owner *entities.User, name string, quantity float64, cost string, threshold float64) domain.IngredientResponse {
	c := decimal.RequireFromString(cost)
	res, err := f.svc.AddIngredient(context.Background(), domain.CreateIngredientRequest{
		Name:              name,
		Quantity:          &quantity,
		Unit:              "grams",
		Cost:              &c,
		ExpirationDate:    "2025-12-31",
		LowStockThreshold: threshold,
	}, owner.ID.String())
	require.NoError(t, err)
	return res
}

func TestAddIngredient(t *testing.T) {
	f := newFixture(t)

	res := f.create(t, f.baker, "Butter", 200, "4.99", 50)

	assert.Equal(t, "Butter", res.Name)
	assert.Equal(t, 200.0, res.Quantity)
	assert.Equal(t, 4.99, res.Cost)
	require.NotNil(t, res.ExpirationDate)
	assert.Equal(t, "2025-12-31", *res.ExpirationDate)
	assert.False(t, res.IsLowStock)
}

func TestAddIngredient_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quantity, negative := 10.0, -1.0
	cost, negativeCost := decimal.RequireFromString("1.00"), decimal.RequireFromString("-1")
	hugeCost, roundsUp := decimal.RequireFromString("1000000"), decimal.RequireFromString("999999.995")

	tests := []struct {
		name    string
		req     domain.CreateIngredientRequest
		wantErr error
	}{
		{name: "negative quantity", req: domain.CreateIngredientRequest{Name: "Salt", Quantity: &negative, Unit: "g", Cost: &cost}, wantErr: domain.ErrInvalidQuantity},
		{name: "negative cost", req: domain.CreateIngredientRequest{Name: "Salt", Quantity: &quantity, Unit: "g", Cost: &negativeCost}, wantErr: domain.ErrInvalidCost},
		{name: "cost too large", req: domain.CreateIngredientRequest{Name: "Salt", Quantity: &quantity, Unit: "g", Cost: &hugeCost}, wantErr: domain.ErrInvalidCost},
		{name: "cost rounds past limit", req: domain.CreateIngredientRequest{Name: "Salt", Quantity: &quantity, Unit: "g", Cost: &roundsUp}, wantErr: domain.ErrInvalidCost},
		{name: "bad date", req: domain.CreateIngredientRequest{Name: "Salt", Quantity: &quantity, Unit: "g", Cost: &cost, ExpirationDate: "31/12/2025"}, wantErr: domain.ErrInvalidExpirationDate},
		{name: "negative threshold", req: domain.CreateIngredientRequest{Name: "Salt", Quantity: &quantity, Unit: "g", Cost: &cost, LowStockThreshold: -5}, wantErr: domain.ErrInvalidThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddIngredient(ctx, tt.req, f.baker.ID.String())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAddStockThenDeductStock_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := f.create(t, f.baker, "Flour", 1000, "3.00", 0)

	added, err := f.svc.AddStock(ctx, flour.ID, "250.5", f.baker.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1250.5, added.NewQuantity)

	deducted, err := f.svc.DeductStock(ctx, flour.ID, "250.5", f.baker.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1000.0, deducted.NewQuantity)

	stored, err := f.svc.GetIngredientByID(ctx, flour.ID, f.baker.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1000.0, stored.Quantity)
}

func TestAdjustStock_ConcurrentUpdatesAreNotLost(t *testing.T) {
	tests := []struct {
		name    string
		start   float64
		adds    int
		deducts int
		want    float64
	}{
		{name: "mixed", start: 100, adds: 25, deducts: 25, want: 125},
		{name: "only adds", start: 0, adds: 40, deducts: 0, want: 80},
		{name: "drain to zero", start: 30, adds: 0, deducts: 30, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			salt := f.create(t, f.baker, "Salt", tt.start, "0.99", 0)

			var wg sync.WaitGroup
			errs := make(chan error, tt.adds+tt.deducts)
			run := func(adjust func() error) {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- adjust()
				}()
			}
			for i := 0; i < tt.adds; i++ {
				run(func() error {
					_, err := f.svc.AddStock(ctx, salt.ID, "2", f.baker.ID.String())
					return err
				})
			}
			for i := 0; i < tt.deducts; i++ {
				run(func() error {
					_, err := f.svc.DeductStock(ctx, salt.ID, "1", f.baker.ID.String())
					return err
				})
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				assert.NoError(t, err)
			}

			got, err := f.svc.GetIngredientByID(ctx, salt.ID, f.baker.ID.String())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Quantity)
		})
	}
}

func TestDeductStock_Insufficient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sugar := f.create(t, f.baker, "Sugar", 100, "1.50", 0)

	_, err := f.svc.DeductStock(ctx, sugar.ID, "100.01", f.baker.ID.String())
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	stored, err := f.svc.GetIngredientByID(ctx, sugar.ID, f.baker.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.Quantity)

	res, err := f.svc.DeductStock(ctx, sugar.ID, "100", f.baker.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.NewQuantity)
}

func TestAdjustStock_InvalidAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sugar := f.create(t, f.baker, "Sugar", 100, "1.50", 0)

	for _, amount := range []string{"0", "-5", "abc", ""} {
		_, err := f.svc.AddStock(ctx, sugar.ID, amount, f.baker.ID.String())
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, "add %q", amount)

		_, err = f.svc.DeductStock(ctx, sugar.ID, amount, f.baker.ID.String())
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, "deduct %q", amount)
	}
}

func TestAdjustStock_NotFoundBeforeAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"3", uuid.NewString()} {
		_, err := f.svc.AddStock(ctx, id, "abc", f.baker.ID.String())
		assert.ErrorIs(t, err, domain.ErrIngredientNotFound)

		_, err = f.svc.DeductStock(ctx, id, "-1", f.baker.ID.String())
		assert.ErrorIs(t, err, domain.ErrIngredientNotFound)
	}
}

func TestAdjustStock_OtherOwnerIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	butter := f.create(t, f.another, "Butter", 200, "4.99", 0)

	_, err := f.svc.AddStock(ctx, butter.ID, "5", f.baker.ID.String())
	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)

	_, err = f.svc.GetIngredientByID(ctx, butter.ID, f.baker.ID.String())
	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)
}

func TestDeductStock_LowStockAlert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := f.create(t, f.baker, "Flour", 300, "3.00", 200)

	_, err := f.svc.DeductStock(ctx, flour.ID, "50", f.baker.ID.String())
	require.NoError(t, err)
	assert.Empty(t, f.mailer.sent)

	res, err := f.svc.DeductStock(ctx, flour.ID, "60", f.baker.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 190.0, res.NewQuantity)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "baker@example.com", f.mailer.sent[0].to)
	assert.Equal(t, "Low stock: Flour", f.mailer.sent[0].subject)

	// already below the threshold, no second alert
	_, err = f.svc.DeductStock(ctx, flour.ID, "10", f.baker.ID.String())
	require.NoError(t, err)
	assert.Len(t, f.mailer.sent, 1)
}

func TestDeductStock_MailFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")
	flour := f.create(t, f.baker, "Flour", 300, "3.00", 200)

	res, err := f.svc.DeductStock(context.Background(), flour.ID, "150", f.baker.ID.String())

	require.NoError(t, err)
	assert.Equal(t, 150.0, res.NewQuantity)
}

func TestGetIngredients_LowStockFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, f.baker, "Flour", 1000, "3.00", 200)
	f.create(t, f.baker, "Yeast", 5, "1.00", 10)
	f.create(t, f.another, "Salt", 1, "1.00", 10)

	all, count, err := f.svc.GetIngredients(ctx, f.baker.ID.String(), domain.IngredientFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	require.Len(t, all, 2)
	assert.Equal(t, "Flour", all[0].Name)

	low, count, err := f.svc.GetIngredients(ctx, f.baker.ID.String(), domain.IngredientFilter{LowStockOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.Len(t, low, 1)
	assert.Equal(t, "Yeast", low[0].Name)
	assert.True(t, low[0].IsLowStock)
}

func TestUpdateIngredient_LeavesQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := f.create(t, f.baker, "Flour", 1000, "3.00", 0)
	name, cost, empty := "Bread Flour", decimal.RequireFromString("3.254"), ""

	res, err := f.svc.UpdateIngredient(ctx, flour.ID, domain.UpdateIngredientRequest{
		Name:           &name,
		Cost:           &cost,
		ExpirationDate: &empty,
	}, f.baker.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Bread Flour", res.Name)
	assert.Equal(t, 3.25, res.Cost)
	assert.Equal(t, 1000.0, res.Quantity)
	assert.Nil(t, res.ExpirationDate)
}

func TestUpdateIngredient_CostTooLarge(t *testing.T) {
	f := newFixture(t)
	flour := f.create(t, f.baker, "Flour", 1000, "3.00", 0)
	cost := decimal.RequireFromString("1000000")

	_, err := f.svc.UpdateIngredient(context.Background(), flour.ID, domain.UpdateIngredientRequest{Cost: &cost}, f.baker.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidCost)

	got, err := f.svc.GetIngredientByID(context.Background(), flour.ID, f.baker.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Cost)
}

func TestDeleteIngredient_CascadesToRecipeLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := f.create(t, f.baker, "Flour", 1000, "3.00", 0)
	sugar := f.create(t, f.baker, "Sugar", 1000, "2.50", 0)

	recipe := &entities.Recipe{
		UserID:   f.baker.ID,
		Name:     "Test Cake",
		Servings: 12,
		Ingredients: []entities.RecipeIngredient{
			{IngredientID: uuid.MustParse(flour.ID), Amount: 350, Unit: "grams", Position: 0},
			{IngredientID: uuid.MustParse(sugar.ID), Amount: 150, Unit: "grams", Position: 1},
		},
	}
	require.NoError(t, f.db.Create(recipe).Error)

	require.NoError(t, f.svc.DeleteIngredient(ctx, flour.ID, f.baker.ID.String()))

	var lines []entities.RecipeIngredient
	require.NoError(t, f.db.Where("recipe_id = ?", recipe.ID).Find(&lines).Error)
	require.Len(t, lines, 1)
	assert.Equal(t, sugar.ID, lines[0].IngredientID.String())

	_, err := f.svc.GetIngredientByID(ctx, flour.ID, f.baker.ID.String())
	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)
}

func TestDeleteIngredient_OtherOwner(t *testing.T) {
	f := newFixture(t)
	butter := f.create(t, f.another, "Butter", 200, "4.99", 0)

	err := f.svc.DeleteIngredient(context.Background(), butter.ID, f.baker.ID.String())

	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)
}

func TestUploadIngredientImage_ReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flour := f.create(t, f.baker, "Flour", 1000, "3.00", 0)

	first, err := f.svc.UploadIngredientImage(ctx, flour.ID, domain.UploadIngredientImageRequest{Image: &multipart.FileHeader{Filename: "a.png"}}, f.baker.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "https://pantry.s3.test.amazonaws.com/ingredients/a.png", first.ImageURL)

	_, err = f.svc.UploadIngredientImage(ctx, flour.ID, domain.UploadIngredientImageRequest{Image: &multipart.FileHeader{Filename: "b.png"}}, f.baker.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"ingredients/a.png"}, f.s3.deleted)

	require.NoError(t, f.svc.DeleteIngredient(ctx, flour.ID, f.baker.ID.String()))
	assert.Equal(t, []string{"ingredients/a.png", "ingredients/b.png"}, f.s3.deleted)
}

func TestIngredientString(t *testing.T) {
	ingredient := entities.Ingredient{Name: "Salt", Quantity: 50, Unit: "g"}

	assert.Equal(t, "Salt (50 g)", ingredient.String())
}
