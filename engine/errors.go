package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvariant помечает нарушение доменного инварианта: испорченные данные
// выше по потоку или дефект шаблона расписания, а не ошибка пользователя.
// Такие ошибки фатальны для текущего вычисления и должны пробрасываться
// наверх, а не глушиться значениями по умолчанию.
var ErrInvariant = errors.New("domain invariant violated")

func invariantErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// ValidationError - ошибка формы входных данных или расхождение с
// пересчетом. Ожидаемая, рутинная ситуация: Fields содержит детализацию
// (поле -> ожидаемое/фактическое) для исправления и повторной отправки.
type ValidationError struct {
	Msg    string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Msg + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) addField(field, detail string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = detail
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidationError сообщает, относится ли err к ошибкам валидации
// (в отличие от нарушений инвариантов).
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
