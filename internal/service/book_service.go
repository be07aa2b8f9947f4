package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/config"
	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/oss"
	"github.com/qs3c/bookstore_go_server/internal/repository"
)

var (
	ErrBookNotFound   = errors.New("图书不存在")
	ErrBookNameExists = errors.New("书名已存在")
	ErrBookPermission = errors.New("无权操作此图书")
)

// ListBooksResult 带分页信息的列表结果
type ListBooksResult struct {
	Books    []*model.Book `json:"books"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type BookService struct {
	bookRepo     *repository.BookRepository
	categoryRepo *repository.CategoryRepository
	redisClient  *redis.Client
	ossClient    *oss.Client
	cfg          *config.Config
}

func NewBookService(
	bookRepo *repository.BookRepository,
	categoryRepo *repository.CategoryRepository,
	redisClient *redis.Client,
	ossClient *oss.Client,
	cfg *config.Config,
) *BookService {
	return &BookService{
		bookRepo:     bookRepo,
		categoryRepo: categoryRepo,
		redisClient:  redisClient,
		ossClient:    ossClient,
		cfg:          cfg,
	}
}

// Create 创建书目
func (s *BookService) Create(ctx context.Context, userID int64, req *dto.CreateBookRequest) (*model.Book, error) {
	if _, err := s.categoryRepo.GetByID(req.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	exists, err := s.bookRepo.ExistsByName(req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrBookNameExists
	}

	book := &model.Book{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	}

	if err := s.bookRepo.Create(book); err != nil {
		return nil, err
	}

	s.bumpCacheVersion(ctx)
	return book, nil
}

// Get 查询单本图书
func (s *BookService) Get(id int64) (*model.Book, error) {
	book, err := s.bookRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

// List 分页查询图书，结果在 Redis 中缓存，任何写操作后失效
func (s *BookService) List(ctx context.Context, req *dto.ListBooksRequest) (*ListBooksResult, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.cfg.Catalog.DefaultPageSize
	}

	order := buildBookOrder(req.SortBy, req.OrderBy)

	cacheKey := s.listCacheKey(ctx, req.CategoryID, req.Keyword, order, page, pageSize)
	if cacheKey != "" {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var result ListBooksResult
			if json.Unmarshal([]byte(cached), &result) == nil {
				return &result, nil
			}
		}
	}

	books, total, err := s.bookRepo.List(req.CategoryID, req.Keyword, order, page, pageSize)
	if err != nil {
		return nil, err
	}

	result := &ListBooksResult{
		Books:    books,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}

	if cacheKey != "" {
		if data, err := json.Marshal(result); err == nil {
			ttl := time.Duration(s.cfg.Catalog.CacheTTLSeconds) * time.Second
			if ttl <= 0 {
				ttl = time.Minute
			}
			s.redisClient.Set(ctx, cacheKey, data, ttl)
		}
	}

	return result, nil
}

// Update 更新书目，只有创建者可以修改
func (s *BookService) Update(ctx context.Context, userID, bookID int64, req *dto.UpdateBookRequest) (*model.Book, error) {
	book, err := s.Get(bookID)
	if err != nil {
		return nil, err
	}
	if book.UserID != userID {
		return nil, ErrBookPermission
	}

	if req.Name != nil && *req.Name != book.Name {
		exists, err := s.bookRepo.ExistsByName(*req.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrBookNameExists
		}
		book.Name = *req.Name
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.Price != nil {
		book.Price = *req.Price
	}
	if req.Quantity != nil {
		book.Quantity = *req.Quantity
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(*req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		book.CategoryID = *req.CategoryID
	}

	if err := s.bookRepo.Update(book); err != nil {
		return nil, err
	}

	s.bumpCacheVersion(ctx)
	return book, nil
}

// Delete 删除书目，只有创建者可以删除
func (s *BookService) Delete(ctx context.Context, userID, bookID int64) error {
	book, err := s.Get(bookID)
	if err != nil {
		return err
	}
	if book.UserID != userID {
		return ErrBookPermission
	}

	if err := s.bookRepo.Delete(bookID); err != nil {
		return err
	}

	s.bumpCacheVersion(ctx)
	return nil
}

// UploadCover 上传封面图到 OSS 并回写 URL
func (s *BookService) UploadCover(ctx context.Context, userID, bookID int64, file io.Reader, filename string) (string, error) {
	book, err := s.Get(bookID)
	if err != nil {
		return "", err
	}
	if book.UserID != userID {
		return "", ErrBookPermission
	}

	if s.ossClient == nil {
		return "", errors.New("OSS 客户端未配置")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}

	coverURL, err := s.ossClient.UploadCover(bookID, data, ext)
	if err != nil {
		return "", err
	}

	if err := s.bookRepo.UpdateFields(bookID, map[string]interface{}{
		"cover_url": coverURL,
	}); err != nil {
		return "", err
	}

	s.bumpCacheVersion(ctx)
	return coverURL, nil
}

const bookCacheVersionKey = "books:cache_version"

// listCacheKey 列表缓存键，内嵌版本号，写操作只需递增版本即可整体失效
func (s *BookService) listCacheKey(ctx context.Context, categoryID int64, keyword, order string, page, pageSize int) string {
	if s.redisClient == nil {
		return ""
	}
	version, err := s.redisClient.Get(ctx, bookCacheVersionKey).Int64()
	if err != nil && err != redis.Nil {
		return ""
	}
	return fmt.Sprintf("books:list:v%d:%d:%s:%s:%d:%d", version, categoryID, keyword, order, page, pageSize)
}

func (s *BookService) bumpCacheVersion(ctx context.Context) {
	if s.redisClient == nil {
		return
	}
	s.redisClient.Incr(ctx, bookCacheVersionKey)
}

// buildBookOrder 把排序参数映射到白名单列，杜绝注入
func buildBookOrder(sortBy, orderBy string) string {
	column := "id"
	switch sortBy {
	case "price":
		column = "price"
	case "name":
		column = "name"
	case "created_at":
		column = "created_at"
	}

	direction := "DESC"
	if orderBy == "asc" {
		direction = "ASC"
	}

	return column + " " + direction
}
