package handler

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/bookstore_go_server/internal/api/middleware"
	"github.com/qs3c/bookstore_go_server/internal/model/dto"
	"github.com/qs3c/bookstore_go_server/internal/pkg/response"
	"github.com/qs3c/bookstore_go_server/internal/service"
)

// 封面图最大 5MB
const maxCoverSize = 5 << 20

var allowedCoverExts = []string{".jpg", ".jpeg", ".png", ".webp"}

type BookHandler struct {
	bookService *service.BookService
}

func NewBookHandler(bookService *service.BookService) *BookHandler {
	return &BookHandler{
		bookService: bookService,
	}
}

// Create 创建图书
// POST /api/v1/admin/books
func (h *BookHandler) Create(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	book, err := h.bookService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookNameExists):
			response.ConflictError(c, err.Error())
		case errors.Is(err, service.ErrCategoryNotFound):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "创建成功", book)
}

// List 图书列表（支持分类、关键词、排序、分页）
// GET /api/v1/books
func (h *BookHandler) List(c *gin.Context) {
	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	result, err := h.bookService.List(c.Request.Context(), &req)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, result.Total, result.Page, result.PageSize, result.Books)
}

// Get 图书详情
// GET /api/v1/books/:id
func (h *BookHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := h.bookService.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, book)
}

// Update 更新图书
// PUT /api/v1/admin/books/:id
func (h *BookHandler) Update(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	book, err := h.bookService.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrBookPermission):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrBookNameExists):
			response.ConflictError(c, err.Error())
		case errors.Is(err, service.ErrCategoryNotFound):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "更新成功", book)
}

// Delete 删除图书
// DELETE /api/v1/admin/books/:id
func (h *BookHandler) Delete(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.bookService.Delete(c.Request.Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrBookNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrBookPermission):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// UploadCover 上传封面图
// POST /api/v1/admin/books/:id/cover
func (h *BookHandler) UploadCover(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("cover")
	if err != nil {
		response.ParamError(c, "请上传封面文件")
		return
	}
	defer file.Close()

	if header.Size > maxCoverSize {
		response.ParamError(c, "封面过大，最大支持 5MB")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	allowed := false
	for _, allowedExt := range allowedCoverExts {
		if ext == allowedExt {
			allowed = true
			break
		}
	}
	if !allowed {
		response.ParamError(c, "仅支持 JPG/PNG/WEBP 格式")
		return
	}

	url, err := h.bookService.UploadCover(c.Request.Context(), userID, id, file, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrBookPermission):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "封面上传失败")
		}
		return
	}

	response.SuccessWithMessage(c, "上传成功", gin.H{"cover_url": url})
}
