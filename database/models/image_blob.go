package models

// ImageBlob web 平台键值存储中的一条记录
type ImageBlob struct {
	Path      string `gorm:"primaryKey;size:512"`
	Data      []byte `gorm:"not null"`
	Timestamp int64  `gorm:"not null;index"` // 写入时间，毫秒
}

func (ImageBlob) TableName() string {
	return "image_blobs"
}
