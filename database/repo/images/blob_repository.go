package images

import (
	"context"
	"errors"
	"time"

	"github.com/anoixa/facility-image-store/database"
	"github.com/anoixa/facility-image-store/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Opener 延迟获取数据库连接
type Opener interface {
	Open(ctx context.Context) (database.Provider, error)
}

// BlobRepository 以路径为键的图片数据仓库
type BlobRepository struct {
	opener Opener
	now    func() time.Time
}

// NewBlobRepository 创建仓库，数据库在第一次调用时打开
func NewBlobRepository(opener Opener) *BlobRepository {
	return &BlobRepository{opener: opener, now: time.Now}
}

func (r *BlobRepository) db(ctx context.Context) (*gorm.DB, error) {
	provider, err := r.opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	return provider.WithContext(ctx), nil
}

// Put 按路径写入，已存在时覆盖
func (r *BlobRepository) Put(ctx context.Context, path string, data []byte) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}

	blob := models.ImageBlob{Path: path, Data: data, Timestamp: r.now().UnixMilli()}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "timestamp"}),
	}).Create(&blob).Error
}

// Get 返回数据，不存在时返回 nil, nil
func (r *BlobRepository) Get(ctx context.Context, path string) ([]byte, error) {
	blob, err := r.Find(ctx, path)
	if err != nil || blob == nil {
		return nil, err
	}
	if blob.Data == nil {
		return []byte{}, nil
	}
	return blob.Data, nil
}

// Find 返回完整记录，不存在时返回 nil, nil
func (r *BlobRepository) Find(ctx context.Context, path string) (*models.ImageBlob, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	var blob models.ImageBlob
	err = db.Where("path = ?", path).First(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &blob, nil
}

// Delete 删除记录，返回是否真的删掉了一条；不存在时不报错
func (r *BlobRepository) Delete(ctx context.Context, path string) (bool, error) {
	db, err := r.db(ctx)
	if err != nil {
		return false, err
	}
	result := db.Where("path = ?", path).Delete(&models.ImageBlob{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Count 记录总数
func (r *BlobRepository) Count(ctx context.Context) (int64, error) {
	db, err := r.db(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.Model(&models.ImageBlob{}).Count(&n).Error
	return n, err
}

// Health 打开数据库并检查连接
func (r *BlobRepository) Health(ctx context.Context) error {
	provider, err := r.opener.Open(ctx)
	if err != nil {
		return err
	}
	return provider.Ping(ctx)
}

// Each 按主键顺序分批遍历记录
func (r *BlobRepository) Each(ctx context.Context, batchSize int, fn func(batch []models.ImageBlob) error) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	var batch []models.ImageBlob
	result := db.FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		return fn(batch)
	})
	return result.Error
}

// Import 写入完整记录并保留时间戳；overwrite 为 false 时跳过已存在的路径，返回是否写入
func (r *BlobRepository) Import(ctx context.Context, blob models.ImageBlob, overwrite bool) (bool, error) {
	db, err := r.db(ctx)
	if err != nil {
		return false, err
	}
	if blob.Data == nil {
		blob.Data = []byte{}
	}

	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoNothing: true,
	}
	if overwrite {
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "timestamp"}),
		}
	}

	result := db.Clauses(conflict).Create(&blob)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
