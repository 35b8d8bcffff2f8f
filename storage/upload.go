package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"learnhub/apperr"

	"github.com/gabriel-vasile/mimetype"
)

// FilePart is an uploaded file read into memory.
type FilePart struct {
	Name         string
	DeclaredType string
	Data         []byte
}

func (f FilePart) Size() int64 { return int64(len(f.Data)) }

// allowedTypes maps an extension to the sniffed mime types accepted for it.
var allowedTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".ppt":  {"application/vnd.ms-powerpoint", "application/x-ole-storage"},
	".pptx": {"application/vnd.openxmlformats-officedocument.presentationml.presentation", "application/zip"},
	".xls":  {"application/vnd.ms-excel", "application/x-ole-storage"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/zip"},
	".txt":  {"text/plain"},
	".md":   {"text/plain"},
	".csv":  {"text/csv", "text/plain"},
	".zip":  {"application/zip"},
	".png":  {"image/png"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".gif":  {"image/gif"},
	".webp": {"image/webp"},
	".mp3":  {"audio/mpeg"},
	".mp4":  {"video/mp4"},
	".webm": {"video/webm"},
}

// UploadPolicy bounds what a single request may upload.
type UploadPolicy struct {
	MaxFiles    int
	MaxFileSize int64
}

func DefaultPolicy() UploadPolicy {
	return UploadPolicy{MaxFiles: 10, MaxFileSize: 10 * 1024 * 1024}
}

// Check validates count, size, extension and sniffed content of every file and
// returns the detected content type per file, in order.
func (p UploadPolicy) Check(files []FilePart) ([]string, error) {
	if p.MaxFiles > 0 && len(files) > p.MaxFiles {
		return nil, apperr.Validation(map[string]string{
			"files": fmt.Sprintf("At most %d files are allowed!", p.MaxFiles),
		})
	}

	fields := make(map[string]string)
	types := make([]string, len(files))
	for i, f := range files {
		field := fmt.Sprintf("files[%d]", i)
		ct, err := p.checkOne(f)
		if err != "" {
			fields[field] = err
			continue
		}
		types[i] = ct
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}
	return types, nil
}

func (p UploadPolicy) checkOne(f FilePart) (string, string) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return "", "File name is required!"
	}
	if len(f.Data) == 0 {
		return "", fmt.Sprintf("%s is empty!", name)
	}
	if p.MaxFileSize > 0 && f.Size() > p.MaxFileSize {
		return "", fmt.Sprintf("%s exceeds the %d MB limit!", name, p.MaxFileSize/(1024*1024))
	}
	ext := strings.ToLower(filepath.Ext(name))
	accepted, ok := allowedTypes[ext]
	if !ok {
		return "", fmt.Sprintf("%s has a file type that is not allowed!", name)
	}
	detected := mimetype.Detect(f.Data)
	for m := detected; m != nil; m = m.Parent() {
		for _, want := range accepted {
			if m.Is(want) {
				return baseType(detected.String()), ""
			}
		}
	}
	return "", fmt.Sprintf("%s content does not match its extension!", name)
}
