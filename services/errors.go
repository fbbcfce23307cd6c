package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPoolNameRequired   = errors.New("pool name is required")
	ErrNotPoolMember      = errors.New("user is not a member of this pool")
	ErrGroupsIncomplete   = errors.New("all twelve group predictions must be saved first")
	ErrPhaseLocked        = errors.New("previous phase predictions are incomplete")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")
	ErrPoolNameConflict     = errors.New("pool name is already in use")
	ErrAlreadyPoolMember    = errors.New("user has already joined this pool")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrPoolNotFound       = errors.New("pool not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPredictionNotFound = errors.New("prediction not found")

	// Ошибки загрузки файлов
	ErrInvalidImageFormat = errors.New("invalid image format")
	ErrUploadFailed       = errors.New("file upload failed")
)
