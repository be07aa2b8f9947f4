package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/bookstore_go_server/internal/model"
)

type BookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) Create(book *model.Book) error {
	return r.db.Create(book).Error
}

func (r *BookRepository) GetByID(id int64) (*model.Book, error) {
	var book model.Book
	err := r.db.Where("id = ?", id).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *BookRepository) GetByName(name string) (*model.Book, error) {
	var book model.Book
	err := r.db.Where("name = ?", name).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List 分页查询图书，支持按分类和关键字过滤。order 需由调用方拼好（白名单列）。
func (r *BookRepository) List(categoryID int64, keyword, order string, page, pageSize int) ([]*model.Book, int64, error) {
	query := r.db.Model(&model.Book{})

	if categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if order == "" {
		order = "id DESC"
	}

	var books []*model.Book
	offset := (page - 1) * pageSize
	err := query.Order(order).Offset(offset).Limit(pageSize).Find(&books).Error
	if err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

func (r *BookRepository) Update(book *model.Book) error {
	return r.db.Save(book).Error
}

func (r *BookRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Book{}).Where("id = ?", id).Updates(fields).Error
}

func (r *BookRepository) Delete(id int64) error {
	return r.db.Delete(&model.Book{}, id).Error
}

func (r *BookRepository) ExistsByName(name string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Book{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}
