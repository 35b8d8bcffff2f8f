package utils

import (
	"io"
	"mime/multipart"
	"strings"

	"learnhub/storage"

	"github.com/gofiber/fiber/v2"
)

// ReadUploadedFile loads a multipart file into memory.
func ReadUploadedFile(file *multipart.FileHeader) (storage.FilePart, error) {
	src, err := file.Open()
	if err != nil {
		return storage.FilePart{}, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return storage.FilePart{}, err
	}
	return storage.FilePart{
		Name:         file.Filename,
		DeclaredType: file.Header.Get("Content-Type"),
		Data:         data,
	}, nil
}

// IsMultipart reports whether the request carries a multipart form.
func IsMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

// ReadFormFiles returns every file sent under field. Non-multipart requests
// have no files.
func ReadFormFiles(c *fiber.Ctx, field string) ([]storage.FilePart, error) {
	if !IsMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	headers := form.File[field]
	files := make([]storage.FilePart, 0, len(headers))
	for _, h := range headers {
		f, err := ReadUploadedFile(h)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// ReadFormFile returns the single file sent under field, or nil.
func ReadFormFile(c *fiber.Ctx, field string) (*storage.FilePart, error) {
	files, err := ReadFormFiles(c, field)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}
