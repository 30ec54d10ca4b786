package response

// AppError 接口层错误：业务码、文案 key、本地化文案与底层原因
type AppError struct {
	Code       int
	MessageKey string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ServerSide 是否为服务端故障（存储不可用、未预期错误）
func (e *AppError) ServerSide() bool {
	return e.Code >= CodeInternal
}

// WrapError 包装错误
func WrapError(code int, key, message string, err error) *AppError {
	return &AppError{
		Code:       code,
		MessageKey: key,
		Message:    message,
		Err:        err,
	}
}
