package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ynshung/mynutriapps-server/models"
	"github.com/ynshung/mynutriapps-server/utils"

	"gorm.io/gorm"
)

// ErrProductNotFound is returned when a product id resolves to nothing.
var ErrProductNotFound = errors.New("product not found")

// ProductService covers catalog reads and the write paths that trigger
// rescoring: creating a product or touching its nutrition record recomputes
// the NutriScore grade and the whole category's score maps.
type ProductService struct {
	db     *gorm.DB
	scores *ScoreService
}

func NewProductService(db *gorm.DB, scores *ScoreService) *ProductService {
	return &ProductService{db: db, scores: scores}
}

// ProductCard is the compact product representation used by lists and
// recommendation panels.
type ProductCard struct {
	ID               uint            `json:"id"`
	Name             string          `json:"name"`
	Brand            string          `json:"brand"`
	CategoryID       uint            `json:"category_id"`
	CategoryName     string          `json:"category_name"`
	ImageKey         string          `json:"image_key,omitempty"`
	NutriScore       *string         `json:"nutriscore,omitempty"`
	Score            models.ScoreMap `json:"score,omitempty"`
	IsFavorite       bool            `json:"is_favorite"`
	AllergenConflict bool            `json:"allergen_conflict"`

	Similarity  *float64            `json:"similarity,omitempty"`
	Recommended *RecommendedProduct `json:"recommended,omitempty"`
}

// GetProductCards builds cards for the given ids. With a non-zero userID the
// favorite flag and the allergen conflict flag are filled from the profile.
func (s *ProductService) GetProductCards(ctx context.Context, ids []uint, userID uint) ([]ProductCard, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var products []models.FoodProduct
	if err := s.db.WithContext(ctx).
		Preload("Nutrition").
		Preload("FoodCategory").
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, err
	}

	type frontImageRow struct {
		FoodProductID uint
		ImageKey      string
	}
	var frontImages []frontImageRow
	if err := s.db.WithContext(ctx).Raw(`
		SELECT ifp.food_product_id AS food_product_id, i.image_key AS image_key
		  FROM image_food_products ifp
		  JOIN images i ON i.id = ifp.image_id
		 WHERE ifp.type = ? AND ifp.food_product_id IN ?`,
		models.ImageTypeFront, ids,
	).Scan(&frontImages).Error; err != nil {
		return nil, err
	}
	imageKeys := make(map[uint]string, len(frontImages))
	for _, row := range frontImages {
		if _, ok := imageKeys[row.FoodProductID]; !ok {
			imageKeys[row.FoodProductID] = row.ImageKey
		}
	}

	favorites := make(map[uint]bool)
	var allergies []string
	if userID != 0 {
		var favoriteRows []models.UserProductFavorite
		if err := s.db.WithContext(ctx).
			Where("user_id = ? AND food_product_id IN ?", userID, ids).
			Find(&favoriteRows).Error; err != nil {
			return nil, err
		}
		for _, row := range favoriteRows {
			favorites[row.FoodProductID] = true
		}

		var user models.User
		if err := s.db.WithContext(ctx).First(&user, userID).Error; err == nil {
			allergies = user.Allergies
		}
	}

	cards := make([]ProductCard, 0, len(products))
	for i := range products {
		product := &products[i]
		card := ProductCard{
			ID:               product.ID,
			Name:             product.Name,
			Brand:            product.Brand,
			CategoryID:       product.FoodCategoryID,
			ImageKey:         imageKeys[product.ID],
			Score:            product.Score.Data(),
			IsFavorite:       favorites[product.ID],
			AllergenConflict: hasAllergenConflict(allergies, product.Allergens),
		}
		if product.FoodCategory != nil {
			card.CategoryName = product.FoodCategory.Name
		}
		if product.Nutrition != nil {
			card.NutriScore = product.Nutrition.NutriScore
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// hasAllergenConflict reports whether any user allergy appears in the
// product's allergen list, case-insensitively.
func hasAllergenConflict(userAllergies, productAllergens []string) bool {
	if len(userAllergies) == 0 || len(productAllergens) == 0 {
		return false
	}
	declared := make(map[string]bool, len(productAllergens))
	for _, allergen := range productAllergens {
		declared[strings.ToLower(strings.TrimSpace(allergen))] = true
	}
	for _, allergy := range userAllergies {
		if declared[strings.ToLower(strings.TrimSpace(allergy))] {
			return true
		}
	}
	return false
}

// ProductDetails is the full detail view: the product row with nutrition and
// category preloaded, plus its images and the viewer's favorite flag.
type ProductDetails struct {
	models.FoodProduct
	Images     []ProductImage `json:"images"`
	IsFavorite bool           `json:"is_favorite"`
}

type ProductImage struct {
	models.Image
	Type models.ImageType `json:"type"`
}

func (s *ProductService) GetProductDetails(ctx context.Context, productID, userID uint) (*ProductDetails, error) {
	var product models.FoodProduct
	err := s.db.WithContext(ctx).
		Preload("Nutrition").
		Preload("FoodCategory").
		First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	details := &ProductDetails{FoodProduct: product}

	var links []models.ImageFoodProduct
	if err := s.db.WithContext(ctx).
		Where("food_product_id = ?", productID).
		Find(&links).Error; err != nil {
		return nil, err
	}
	for _, link := range links {
		var image models.Image
		if err := s.db.WithContext(ctx).First(&image, "id = ?", link.ImageID).Error; err != nil {
			continue
		}
		details.Images = append(details.Images, ProductImage{Image: image, Type: link.Type})
	}

	if userID != 0 {
		var count int64
		if err := s.db.WithContext(ctx).
			Model(&models.UserProductFavorite{}).
			Where("user_id = ? AND food_product_id = ?", userID, productID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		details.IsFavorite = count > 0
	}
	return details, nil
}

// LogClick appends one interaction to the click log.
func (s *ProductService) LogClick(ctx context.Context, userID, productID uint, userScan bool) error {
	click := models.ProductClick{
		UserID:        userID,
		FoodProductID: productID,
		UserScan:      userScan,
	}
	return s.db.WithContext(ctx).Create(&click).Error
}

// ToggleFavorite flips the favorite state and returns the new state.
func (s *ProductService) ToggleFavorite(ctx context.Context, userID, productID uint) (bool, error) {
	var existing models.UserProductFavorite
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND food_product_id = ?", userID, productID).
		First(&existing).Error
	if err == nil {
		if err := s.db.WithContext(ctx).
			Where("user_id = ? AND food_product_id = ?", userID, productID).
			Delete(&models.UserProductFavorite{}).Error; err != nil {
			return false, err
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	favorite := models.UserProductFavorite{UserID: userID, FoodProductID: productID}
	if err := s.db.WithContext(ctx).Create(&favorite).Error; err != nil {
		return false, err
	}
	return true, nil
}

// CreateProduct inserts the product (and nutrition record when given), then
// runs the derived-data pipeline: NutriScore grade and category score maps.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.FoodProduct) error {
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return err
	}
	return s.refreshDerived(ctx, product.ID, product.FoodCategoryID)
}

// UpsertNutrition writes the nutrition record of a product and reruns the
// derived-data pipeline for the product's category.
func (s *ProductService) UpsertNutrition(ctx context.Context, productID uint, nutrition *models.NutritionInfo) error {
	var product models.FoodProduct
	err := s.db.WithContext(ctx).First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}

	nutrition.FoodProductID = productID
	var existing models.NutritionInfo
	err = s.db.WithContext(ctx).Where("food_product_id = ?", productID).First(&existing).Error
	switch {
	case err == nil:
		nutrition.ID = existing.ID
		if err := s.db.WithContext(ctx).Save(nutrition).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.WithContext(ctx).Create(nutrition).Error; err != nil {
			return err
		}
	default:
		return err
	}

	return s.refreshDerived(ctx, productID, product.FoodCategoryID)
}

func (s *ProductService) refreshDerived(ctx context.Context, productID, categoryID uint) error {
	if err := s.ComputeProductNutriScore(ctx, productID); err != nil {
		return err
	}
	_, err := s.scores.SetCategoryProductScore(ctx, categoryID)
	return err
}

// ComputeProductNutriScore classifies the product's nutrition record and
// persists the grade. A product without a nutrition record, or one missing
// energy or saturated fat, stores NULL: undetermined, not zero.
func (s *ProductService) ComputeProductNutriScore(ctx context.Context, productID uint) error {
	var product models.FoodProduct
	err := s.db.WithContext(ctx).
		Preload("Nutrition").
		Preload("FoodCategory").
		First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	if product.Nutrition == nil {
		return nil
	}

	categoryName := ""
	if product.FoodCategory != nil {
		categoryName = product.FoodCategory.Name
	}

	// Labels carry kcal and mg; the classifier wants kJ and g of salt.
	input := utils.NutriScoreInput{
		Type:         utils.DetectNutriScoreProductType(categoryName),
		Energy:       product.Nutrition.FactOrNaN("calories") * 4.184,
		SaturatedFat: product.Nutrition.FactOrNaN("saturatedFat"),
		Sugar:        product.Nutrition.FactOrNaN("sugar"),
		Salt:         product.Nutrition.FactOrNaN("sodium") / 1000,
		Protein:      product.Nutrition.FactOrNaN("protein"),
		Fiber:        product.Nutrition.FactOrNaN("fiber"),
		FVPS:         0,
		Ingredients:  product.Ingredients,
	}

	var grade *string
	if g, ok := utils.CalculateNutriScore(input); ok {
		grade = &g
	}
	return s.db.WithContext(ctx).
		Model(&models.NutritionInfo{}).
		Where("food_product_id = ?", productID).
		Update("nutri_score", grade).Error
}
