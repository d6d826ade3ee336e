package postgres

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nikotrade/backend/internal/domain"
	"nikotrade/backend/internal/storage"
)

// Store is the SQL-backed implementation of storage.Store. PostgreSQL is the
// primary target; MySQL works through the same GORM models.
type Store struct {
	db        *gorm.DB
	retention storage.RetentionPolicy
}

// NewStore opens a PostgreSQL-backed store.
func NewStore(dsn string, retention storage.RetentionPolicy) (*Store, error) {
	return NewStoreWithDialector(postgres.Open(dsn), retention)
}

// NewMySQLStore opens a MySQL-backed store.
func NewMySQLStore(dsn string, retention storage.RetentionPolicy) (*Store, error) {
	return NewStoreWithDialector(mysql.Open(dsn), retention)
}

// NewStoreWithDialector opens a store over any GORM dialector and migrates
// the schema.
func NewStoreWithDialector(dialector gorm.Dialector, retention storage.RetentionPolicy) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	store := &Store{db: db, retention: retention}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&domain.Inquiry{},
		&domain.InquiryAccessToken{},
		&domain.Product{},
		&domain.ProductImage{},
	)
}

// DB exposes the underlying handle for cmd/migrate seeding.
func (s *Store) DB() *gorm.DB { return s.db }

// CreateInquiry inserts a new inquiry row.
func (s *Store) CreateInquiry(input domain.CreateInquiryInput) (*domain.Inquiry, error) {
	if !input.Consent {
		return nil, storage.ErrConsentRequired
	}

	now := time.Now().UTC()
	inquiry := domain.Inquiry{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		ReplyEmail:  domain.NormalizeEmail(input.ReplyEmail),
		ProductSlug: strings.TrimSpace(input.ProductSlug),
		ProductName: strings.TrimSpace(input.ProductName),
		Status:      domain.StatusNew,
		ConsentAt:   now,
		CreatedAt:   now,
	}

	if err := s.db.Create(&inquiry).Error; err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// ListInquiriesByEmail returns the email's inquiries, newest first.
func (s *Store) ListInquiriesByEmail(email string) ([]domain.Inquiry, error) {
	var inquiries []domain.Inquiry
	err := s.db.
		Where("reply_email = ?", domain.NormalizeEmail(email)).
		Order("created_at DESC").
		Find(&inquiries).Error
	if err != nil {
		return nil, err
	}
	return inquiries, nil
}

// IssueAccessToken mints a one-time token; only the hash is inserted.
func (s *Store) IssueAccessToken(email string) (*domain.IssuedAccessToken, error) {
	raw := make([]byte, domain.RawTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	rawToken := hex.EncodeToString(raw)

	now := time.Now().UTC()
	token := domain.InquiryAccessToken{
		ID:        uuid.NewString(),
		Email:     domain.NormalizeEmail(email),
		TokenHash: storage.HashAccessToken(rawToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.retention.AccessTokenTTL),
	}

	if err := s.db.Create(&token).Error; err != nil {
		return nil, err
	}
	return &domain.IssuedAccessToken{RawToken: rawToken, ExpiresAt: token.ExpiresAt}, nil
}

// ConsumeAccessToken redeems a token at most once. A single conditional
// UPDATE stamps used_at only while it is still NULL and the token unexpired;
// the database guarantees at most one of N racing redemptions sees
// RowsAffected == 1.
func (s *Store) ConsumeAccessToken(rawToken string) (string, error) {
	hash := storage.HashAccessToken(strings.TrimSpace(rawToken))
	now := time.Now().UTC()

	result := s.db.Model(&domain.InquiryAccessToken{}).
		Where("token_hash = ? AND used_at IS NULL AND expires_at >= ?", hash, now).
		Update("used_at", now)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", nil
	}

	var token domain.InquiryAccessToken
	if err := s.db.Where("token_hash = ?", hash).First(&token).Error; err != nil {
		return "", err
	}
	return domain.NormalizeEmail(token.Email), nil
}

// Cleanup deletes retention-expired inquiries and stale tokens.
func (s *Store) Cleanup(now time.Time) (int, error) {
	removed := 0

	inquiryCutoff := now.Add(-s.retention.InquiryRetention)
	result := s.db.Where("created_at < ?", inquiryCutoff).Delete(&domain.Inquiry{})
	if result.Error != nil {
		return removed, result.Error
	}
	removed += int(result.RowsAffected)

	usedCutoff := now.Add(-s.retention.UsedTokenRetention)
	result = s.db.
		Where("expires_at < ? OR (used_at IS NOT NULL AND used_at < ?)", now, usedCutoff).
		Delete(&domain.InquiryAccessToken{})
	if result.Error != nil {
		return removed, result.Error
	}
	removed += int(result.RowsAffected)

	return removed, nil
}

// ListProducts loads the catalog with images, ordered by id.
func (s *Store) ListProducts() ([]domain.Product, error) {
	var products []domain.Product
	if err := s.db.Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}

	ids := make([]uint, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}

	var images []domain.ProductImage
	err := s.db.
		Where("product_id IN ?", ids).
		Order("product_id ASC, sort_order ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}

	byProduct := make(map[uint][]string, len(products))
	for _, image := range images {
		url := strings.TrimSpace(image.ImageURL)
		if url != "" {
			byProduct[image.ProductID] = append(byProduct[image.ProductID], url)
		}
	}

	for i := range products {
		if imgs := byProduct[products[i].ID]; len(imgs) > 0 {
			products[i].Images = imgs
		} else {
			products[i].Images = []string{domain.FallbackProductImage}
		}
	}
	return products, nil
}

// GetProductBySlug loads one product with its images.
func (s *Store) GetProductBySlug(slug string) (*domain.Product, error) {
	var product domain.Product
	err := s.db.Where("slug = ?", strings.TrimSpace(slug)).First(&product).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, storage.ErrProductNotFound
		}
		return nil, err
	}

	var images []domain.ProductImage
	err = s.db.
		Where("product_id = ?", product.ID).
		Order("sort_order ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}

	product.Images = make([]string, 0, len(images))
	for _, image := range images {
		if url := strings.TrimSpace(image.ImageURL); url != "" {
			product.Images = append(product.Images, url)
		}
	}
	if len(product.Images) == 0 {
		product.Images = []string{domain.FallbackProductImage}
	}
	return &product, nil
}

// Health pings the underlying connection.
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
