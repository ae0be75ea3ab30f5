package store

import (
	"context"
	"errors"

	"advisor-service/internal/model"

	"gorm.io/gorm"
)

// GormStore implements Store on top of a GORM postgres connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store backed by the given database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateAdvisor(ctx context.Context, advisor *model.Advisor) error {
	// Check first for a friendly conflict, the unique index covers the
	// race window.
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Advisor{}).
		Where("email = ?", advisor.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}

	if err := s.db.WithContext(ctx).Create(advisor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *GormStore) AdvisorByEmail(ctx context.Context, email string) (*model.Advisor, error) {
	var advisor model.Advisor
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&advisor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &advisor, nil
}

func (s *GormStore) ListClients(ctx context.Context, advisorID uint) ([]model.Client, error) {
	var clients []model.Client
	err := s.db.WithContext(ctx).
		Where("advisor_id = ?", advisorID).
		Order("name ASC").
		Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *GormStore) GetClient(ctx context.Context, advisorID, clientID uint) (*model.Client, error) {
	var client model.Client
	err := s.db.WithContext(ctx).
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("meeting_date DESC, created_at DESC")
		}).
		Where("id = ? AND advisor_id = ?", clientID, advisorID).
		First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (s *GormStore) CreateClient(ctx context.Context, client *model.Client) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Client{}).
		Where("phone = ?", client.Phone).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}

	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *GormStore) UpdateClient(ctx context.Context, client *model.Client) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Client{}).
		Where("phone = ? AND id != ?", client.Phone, client.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}

	if err := s.db.WithContext(ctx).Save(client).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *GormStore) DeleteClient(ctx context.Context, advisorID, clientID uint) error {
	// ON DELETE CASCADE on notes handles note deletion.
	result := s.db.WithContext(ctx).
		Where("id = ? AND advisor_id = ?", clientID, advisorID).
		Delete(&model.Client{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) OwnsClient(ctx context.Context, advisorID, clientID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Client{}).
		Where("id = ? AND advisor_id = ?", clientID, advisorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) ListNotes(ctx context.Context, clientID uint) ([]model.Note, error) {
	var notes []model.Note
	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("meeting_date DESC, created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *GormStore) GetNote(ctx context.Context, clientID, noteID uint) (*model.Note, error) {
	var note model.Note
	err := s.db.WithContext(ctx).
		Where("id = ? AND client_id = ?", noteID, clientID).
		First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &note, nil
}

func (s *GormStore) CreateNote(ctx context.Context, note *model.Note) error {
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		// Client was deleted between the ownership check and the insert.
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *GormStore) UpdateNote(ctx context.Context, note *model.Note) error {
	result := s.db.WithContext(ctx).Model(&model.Note{}).
		Where("id = ? AND client_id = ?", note.ID, note.ClientID).
		Updates(map[string]interface{}{
			"meeting_date": note.MeetingDate,
			"summary":      note.Summary,
			"next_steps":   note.NextSteps,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	// Re-read so the caller returns fresh timestamps.
	return s.db.WithContext(ctx).
		Where("id = ? AND client_id = ?", note.ID, note.ClientID).
		First(note).Error
}

func (s *GormStore) DeleteNote(ctx context.Context, clientID, noteID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND client_id = ?", noteID, clientID).
		Delete(&model.Note{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
