package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/ynshung/mynutriapps-server/models"
	"github.com/ynshung/mynutriapps-server/utils"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// EmbeddingService backfills front-image embeddings: it pulls image bytes
// from S3 and sends them to the external vision model server. The model
// itself is an external collaborator; this service only stores its output.
type EmbeddingService struct {
	db     *gorm.DB
	client *http.Client
	host   string
}

func NewEmbeddingService(db *gorm.DB) *EmbeddingService {
	return &EmbeddingService{
		db:     db,
		client: &http.Client{Timeout: 30 * time.Second},
		host:   os.Getenv("BACKEND_AI_HOST"),
	}
}

type unvectorizedImage struct {
	ID            uuid.UUID
	ImageKey      string
	FoodProductID uint
}

func (s *EmbeddingService) listUnvectorized(ctx context.Context) ([]unvectorizedImage, error) {
	var rows []unvectorizedImage
	err := s.db.WithContext(ctx).Raw(`
		SELECT i.id AS id, i.image_key AS image_key, ifp.food_product_id AS food_product_id
		  FROM image_food_products ifp
		  JOIN images i ON i.id = ifp.image_id
		 WHERE ifp.type = ? AND i.embedding IS NULL`,
		models.ImageTypeFront,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// serverReachable checks the model server status endpoint.
func (s *EmbeddingService) serverReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.host+"/status", nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false
	}
	return status.Status == "ok"
}

// vectorizeImage posts the image to the model server and returns the 512-d
// vector.
func (s *EmbeddingService) vectorizeImage(ctx context.Context, imageData []byte) ([]float32, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "image.jpg")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+"/api/v1/fpiv", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model server request error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read model server response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model server error (%d): %s", resp.StatusCode, string(respBytes))
	}

	var out struct {
		Data   []float32 `json:"data"`
		Status string    `json:"status"`
	}
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return nil, fmt.Errorf("decode model server response: %w", err)
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("model server returned status %q", out.Status)
	}
	return out.Data, nil
}

// ProcessUnvectorizedImages embeds every front image that does not have a
// vector yet. Failures on individual images are logged and skipped so one
// bad image cannot stall the backfill. Returns how many images were embedded.
func (s *EmbeddingService) ProcessUnvectorizedImages(ctx context.Context) (int, error) {
	if !s.serverReachable(ctx) {
		return 0, fmt.Errorf("model server is not reachable")
	}

	images, err := s.listUnvectorized(ctx)
	if err != nil {
		return 0, err
	}
	if len(images) == 0 {
		return 0, nil
	}

	processed := 0
	for _, image := range images {
		imageData, err := utils.FetchImageFromS3(ctx, image.ImageKey)
		if err != nil {
			log.Printf("embedding: image %s not fetchable: %v", image.ImageKey, err)
			continue
		}

		vector, err := s.vectorizeImage(ctx, imageData)
		if err != nil {
			log.Printf("embedding: processing %s failed: %v", image.ImageKey, err)
			continue
		}

		embedding := pgvector.NewVector(vector)
		if err := s.db.WithContext(ctx).
			Model(&models.Image{}).
			Where("id = ?", image.ID).
			Update("embedding", embedding).Error; err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}
