package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"documind-backend/internal/shared/storage/object"
)

const mimePDF = "application/pdf"

var (
	// ErrUnsupported is returned for non-PDF uploads.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrNoText is returned for PDFs with no extractable text layer,
	// typically scanned or image-only documents.
	ErrNoText = errors.New("no extractable text layer")
)

// Result holds the outcome of a text extraction.
type Result struct {
	Text      string
	PageCount int
}

// Text pulls text from a stored object and persists a derived .extracted.txt copy.
// Library used: github.com/ledongthuc/pdf.
func Text(ctx context.Context, store object.ObjectStore, fileKey string, mimeType string, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	body, err := store.Open(ctx, fileKey)
	if err != nil {
		return Result{}, fmt.Errorf("extract text key=%s mime=%s: %w", fileKey, mimeType, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return Result{}, fmt.Errorf("extract text key=%s mime=%s: read: %w", fileKey, mimeType, err)
	}

	res, err := TextFromBytes(ctx, raw, mimeType, fileName)
	if err != nil {
		return Result{}, err
	}

	extractedKey := fileKey + ".extracted.txt"
	if _, err := store.SaveWithKey(ctx, extractedKey, "text/plain; charset=utf-8", strings.NewReader(res.Text)); err != nil {
		return Result{}, fmt.Errorf("extract text key=%s mime=%s: %w", fileKey, mimeType, err)
	}

	return res, nil
}

// TextFromBytes extracts text from an in-memory payload.
func TextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if normalizeMimeType(mimeType, fileName) != mimePDF {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupported, mimeType)
	}
	return extractPDF(data)
}

func extractPDF(data []byte) (Result, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("parse pdf: %w", err)
	}

	pageCount := pdfReader.NumPage()
	if pageCount == 0 {
		return Result{}, ErrNoText
	}

	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return Result{}, fmt.Errorf("read text layer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return Result{}, fmt.Errorf("read text layer: %w", err)
	}

	text := buf.String()
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrNoText
	}

	return Result{Text: text, PageCount: pageCount}, nil
}

func normalizeMimeType(mimeType string, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean == mimePDF {
		return clean
	}
	// Browsers occasionally send PDFs as octet-stream; trust the extension then.
	if clean == "application/octet-stream" && strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return mimePDF
	}
	return clean
}
