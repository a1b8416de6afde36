package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrHappeningNotFound = errors.New("happening not found")
	ErrFactNotFound      = errors.New("fact not found")
	ErrInvalidInput      = errors.New("invalid input")
)

// ValidationError 欄位驗證失敗，Fields 為 欄位 -> 訊息列表
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Merge 將另一個驗證錯誤的欄位加上前綴後併入
func (e *ValidationError) Merge(prefix string, other *ValidationError) {
	if other == nil {
		return
	}
	for field, msgs := range other.Fields {
		for _, msg := range msgs {
			e.Add(prefix+field, msg)
		}
	}
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s %s", field, strings.Join(e.Fields[field], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// PersistenceError 包裝儲存層錯誤，保留操作名稱
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence 包裝錯誤；nil、sentinel 與驗證錯誤原樣回傳
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var pe *PersistenceError
	switch {
	case errors.As(err, &ve), errors.As(err, &pe):
		return err
	case errors.Is(err, ErrHappeningNotFound), errors.Is(err, ErrFactNotFound), errors.Is(err, ErrInvalidInput):
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
