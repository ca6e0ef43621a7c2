package attachments

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes is the upload ceiling for card images
const DefaultMaxBytes = 5 * 1024 * 1024

// DefaultAllowedTypes is the image MIME whitelist
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/gif"}

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("file is empty")
	ErrUploadFailed    = errors.New("upload failed")
)

// RejectionError says why a file was refused before upload
type RejectionError struct {
	Reason error  // One of ErrFileTooLarge, ErrUnsupportedType, ErrEmptyFile
	Detail string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%v: %s", e.Reason, e.Detail)
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}

// File is an image picked by the user
type File struct {
	Name        string
	ContentType string // Declared by the client; informational only
	Data        []byte
}

// ValidatedFile is a File that passed the size and type checks
type ValidatedFile struct {
	File
	MIMEType  string // Detected from content
	Extension string // Canonical extension for MIMEType, with dot
}

// Storage receives validated files and returns a public URL
type Storage interface {
	Upload(ctx context.Context, file ValidatedFile) (string, error)
}

// Validator gates images before they may become part of a card
type Validator struct {
	maxBytes int64
	allowed  []string
	storage  Storage
}

// NewValidator builds a validator. maxBytes <= 0 and an empty allowed list
// fall back to the defaults.
func NewValidator(storage Storage, maxBytes int64, allowed []string) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}
	return &Validator{maxBytes: maxBytes, allowed: allowed, storage: storage}
}

// MaxBytes returns the size ceiling
func (v *Validator) MaxBytes() int64 {
	return v.maxBytes
}

// Validate checks size, then the MIME type sniffed from the content.
// The file name and declared content type are not trusted.
func (v *Validator) Validate(f File) (ValidatedFile, error) {
	size := int64(len(f.Data))
	if size == 0 {
		return ValidatedFile{}, &RejectionError{Reason: ErrEmptyFile, Detail: f.Name}
	}
	if size > v.maxBytes {
		return ValidatedFile{}, &RejectionError{
			Reason: ErrFileTooLarge,
			Detail: fmt.Sprintf("%s is %d bytes, limit %d", f.Name, size, v.maxBytes),
		}
	}

	mt := mimetype.Detect(f.Data)
	for _, allowed := range v.allowed {
		if mt.Is(allowed) {
			return ValidatedFile{File: f, MIMEType: allowed, Extension: mt.Extension()}, nil
		}
	}
	return ValidatedFile{}, &RejectionError{
		Reason: ErrUnsupportedType,
		Detail: fmt.Sprintf("%s detected as %s", f.Name, mt.String()),
	}
}

// Upload validates f and hands it to storage, returning the stored URL.
// Nothing is sent to storage when validation fails.
func (v *Validator) Upload(ctx context.Context, f File) (string, error) {
	vf, err := v.Validate(f)
	if err != nil {
		return "", err
	}
	if v.storage == nil {
		return "", fmt.Errorf("%w: no storage configured", ErrUploadFailed)
	}
	url, err := v.storage.Upload(ctx, vf)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	return url, nil
}
