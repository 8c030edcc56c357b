package apperrors

import (
	"errors"
	"fmt"
)

// Таксономия ошибок слоя синхронизации:
// ValidationError - некорректные входные данные, отклоняются до сетевого вызова;
// GatewayError    - ответ сервера с кодом не 2xx;
// NetworkError    - ответ не получен вовсе;
// NotFoundError   - сущность отсутствует и на сервере, и во всех локальных источниках.

// ValidationError - ошибка валидации входных данных
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation: %s", e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// Validation оборачивает ошибку валидатора
func Validation(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, Cause: cause}
}

// GatewayError - сервер ответил кодом не 2xx; Message несет серверное
// сообщение, если его удалось разобрать, иначе "HTTP <status>"
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway: %s", e.Message)
}

// Gateway создает GatewayError; при пустом сообщении подставляет "HTTP <status>"
func Gateway(statusCode int, message string) *GatewayError {
	if message == "" {
		message = fmt.Sprintf("HTTP %d", statusCode)
	}
	return &GatewayError{StatusCode: statusCode, Message: message}
}

// NetworkError - запрос не дошел до сервера (таймаут, обрыв, DNS)
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// Network оборачивает транспортную ошибку
func Network(cause error) *NetworkError {
	return &NetworkError{Cause: cause}
}

// NotFoundError - запись не найдена ни в одном источнике
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("incident %d not found", e.ID)
}

// NotFound создает NotFoundError для заданного id
func NotFound(id int64) *NotFoundError {
	return &NotFoundError{ID: id}
}

// IsNetwork сообщает, была ли ошибка транспортной
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsNotFound сообщает, что сущность не найдена ни в одном источнике
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation сообщает, что входные данные были отклонены до сети
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
