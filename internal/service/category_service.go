package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/repository"
)

var (
	ErrCategoryNotFound = errors.New("分类不存在")
	ErrCategoryExists   = errors.New("分类名已存在")
	ErrCategoryInUse    = errors.New("分类下仍有图书，无法删除")
)

type CategoryService struct {
	categoryRepo *repository.CategoryRepository
}

func NewCategoryService(categoryRepo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// Create 创建分类
func (s *CategoryService) Create(req *dto.CreateCategoryRequest) (*model.Category, error) {
	exists, err := s.categoryRepo.ExistsByName(req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCategoryExists
	}

	category := &model.Category{Name: req.Name}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Get 查询单个分类
func (s *CategoryService) Get(id int64) (*model.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// List 列出全部分类
func (s *CategoryService) List() ([]*model.Category, error) {
	return s.categoryRepo.List()
}

// Update 重命名分类
func (s *CategoryService) Update(id int64, req *dto.UpdateCategoryRequest) (*model.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	if req.Name != category.Name {
		exists, err := s.categoryRepo.ExistsByName(req.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrCategoryExists
		}
		category.Name = req.Name
	}

	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete 删除分类，分类下仍有图书时拒绝
func (s *CategoryService) Delete(id int64) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	count, err := s.categoryRepo.CountBooks(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	return s.categoryRepo.Delete(id)
}
