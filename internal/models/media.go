package models

import (
	"time"

	"github.com/google/uuid"
)

type Media struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Filename   string     `gorm:"size:255;not null" json:"filename"`
	URL        string     `gorm:"size:1024;not null" json:"url"`
	Folder     *string    `gorm:"size:255" json:"folder"`
	MimeType   string     `gorm:"size:100;not null" json:"mime_type"`
	SizeBytes  int64      `gorm:"not null" json:"size_bytes"`
	Alt        *string    `gorm:"size:255" json:"alt"`
	UploadedBy *uuid.UUID `gorm:"type:uuid" json:"uploaded_by"`
	UploadedAt time.Time  `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (Media) TableName() string {
	return "media"
}
