package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/prediction-pool/models"
	"github.com/Dosada05/prediction-pool/storage"
)

// --- Общие хелперы ---

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// runInTx выполняет fn в транзакции: коммит при nil, откат при ошибке или
// панике. Репозитории принимают tx как SQLExecutor.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// imageExtension сводит политику форматов хранилища к сервисной ошибке.
func imageExtension(contentType string) (string, error) {
	ext, err := storage.ImageExtension(contentType)
	if err != nil {
		return "", ErrInvalidImageFormat
	}
	return ext, nil
}

// --- Хелперы публичных URL для файлов в R2 ---

func populateTeamCrestURL(uploader storage.FileUploader, team *models.Team) {
	if team == nil || uploader == nil || team.CrestKey == nil {
		return
	}
	url := uploader.GetPublicURL(*team.CrestKey)
	if url != "" {
		team.CrestURL = &url
	}
}

func populateUserAvatarURL(uploader storage.FileUploader, user *models.User) {
	if user == nil || uploader == nil || user.AvatarKey == nil {
		return
	}
	url := uploader.GetPublicURL(*user.AvatarKey)
	if url != "" {
		user.AvatarURL = &url
	}
}
