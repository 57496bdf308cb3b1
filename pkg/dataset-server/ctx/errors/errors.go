// Package errors defines the error codes shared between the dataset
// apiserver and its clients.
package errors

import "net/http"

// ErrorCode identifies the error cases clients are expected to handle.
type ErrorCode string

var (
	InternalError    ErrorCode = "internal.error"
	ParamsInvalid    ErrorCode = "params.invalid"
	CategoryNotFound ErrorCode = "category.not.found"
	SplitInvalid     ErrorCode = "split.invalid"
	DatasetEmpty     ErrorCode = "dataset.empty"
)

type DatasetError struct {
	httpCode  int
	errorCode ErrorCode
	message   string
}

func (err *DatasetError) Error() string {
	return err.message
}

func (err *DatasetError) HTTPCode() int {
	return err.httpCode
}

func (err *DatasetError) ErrorCode() ErrorCode {
	return err.errorCode
}

func (err *DatasetError) Message() string {
	return err.message
}

func NewInternalError(message string) *DatasetError {
	return &DatasetError{httpCode: http.StatusInternalServerError, errorCode: InternalError, message: message}
}

func NewParamsInvalid(message string) *DatasetError {
	return &DatasetError{httpCode: http.StatusBadRequest, errorCode: ParamsInvalid, message: message}
}

func NewCategoryNotFound(message string) *DatasetError {
	return &DatasetError{httpCode: http.StatusNotFound, errorCode: CategoryNotFound, message: message}
}

func NewSplitInvalid(message string) *DatasetError {
	return &DatasetError{httpCode: http.StatusBadRequest, errorCode: SplitInvalid, message: message}
}

func NewDatasetEmpty(message string) *DatasetError {
	return &DatasetError{httpCode: http.StatusNotFound, errorCode: DatasetEmpty, message: message}
}
