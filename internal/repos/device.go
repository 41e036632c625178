package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/types"
)

type DeviceRepo interface {
	// Upsert inserts a device row keyed by (platform, device_token) or, on
	// conflict, reassigns ownership and refreshes the endpoint. Last writer
	// wins. The persisted row is returned.
	Upsert(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform, deviceToken, endpointARN string) (*types.Device, error)
	GetByID(ctx context.Context, tx *gorm.DB, deviceID uuid.UUID) (*types.Device, error)
	GetByPlatformToken(ctx context.Context, tx *gorm.DB, platform, deviceToken string) (*types.Device, error)
	Disable(ctx context.Context, tx *gorm.DB, deviceID uuid.UUID) error
}

type deviceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeviceRepo(db *gorm.DB, baseLog *logger.Logger) DeviceRepo {
	return &deviceRepo{db: db, log: baseLog.With("repo", "DeviceRepo")}
}

func (r *deviceRepo) Upsert(ctx context.Context, tx *gorm.DB, userID uuid.UUID, platform, deviceToken, endpointARN string) (*types.Device, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.Device{
		ID:          uuid.New(),
		UserID:      userID,
		Platform:    platform,
		DeviceToken: deviceToken,
		EndpointARN: endpointARN,
		Enabled:     true,
		LastSeenAt:  time.Now().UTC(),
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "platform"}, {Name: "device_token"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "endpoint_arn", "enabled", "last_seen_at",
			}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByPlatformToken(ctx, tx, platform, deviceToken)
}

func (r *deviceRepo) GetByID(ctx context.Context, tx *gorm.DB, deviceID uuid.UUID) (*types.Device, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if deviceID == uuid.Nil {
		return nil, nil
	}
	var row types.Device
	err := transaction.WithContext(ctx).
		Where("id = ?", deviceID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *deviceRepo) GetByPlatformToken(ctx context.Context, tx *gorm.DB, platform, deviceToken string) (*types.Device, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Device
	err := transaction.WithContext(ctx).
		Where("platform = ? AND device_token = ?", platform, deviceToken).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *deviceRepo) Disable(ctx context.Context, tx *gorm.DB, deviceID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Device{}).
		Where("id = ?", deviceID).
		Update("enabled", false).Error
}
