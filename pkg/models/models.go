package models

import (
	"time"
)

// TimeLayout is the ISO-8601 form used for every stored timestamp. Its fixed
// width keeps lexical order equal to chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t in UTC using TimeLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Document field names shared by every storage driver.
const (
	FieldUserID    = "userId"
	FieldVideoID   = "videoId"
	FieldCreatedAt = "createdAt"
	FieldViews     = "views"
)

type Video struct {
	ID          string `json:"id" bson:"_id" gorm:"column:id;primary_key"`
	Title       string `json:"title" bson:"title" gorm:"column:title"`
	Description string `json:"description" bson:"description" gorm:"column:description"`
	UserID      string `json:"userId" bson:"userId" gorm:"column:userId;index"`
	VideoURL    string `json:"videoUrl" bson:"videoUrl" gorm:"column:videoUrl"`
	BlobName    string `json:"blobName,omitempty" bson:"blobName,omitempty" gorm:"column:blobName"`
	CreatedAt   string `json:"createdAt" bson:"createdAt" gorm:"column:createdAt;index"`
	Views       int    `json:"views" bson:"views" gorm:"column:views;not null"`
}

func (v Video) DocumentID() string { return v.ID }

type Comment struct {
	ID        string `json:"id" bson:"_id" gorm:"column:id;primary_key"`
	VideoID   string `json:"videoId" bson:"videoId" gorm:"column:videoId;index"`
	UserID    string `json:"userId" bson:"userId" gorm:"column:userId"`
	UserName  string `json:"userName" bson:"userName" gorm:"column:userName"`
	Text      string `json:"text" bson:"text" gorm:"column:text"`
	CreatedAt string `json:"createdAt" bson:"createdAt" gorm:"column:createdAt"`
}

func (c Comment) DocumentID() string { return c.ID }

// User is provisioned lazily from the caller's platform identity.
type User struct {
	ID          string `json:"id" bson:"_id" gorm:"column:id;primary_key"`
	Provider    string `json:"provider" bson:"provider" gorm:"column:provider"`
	Username    string `json:"username" bson:"username" gorm:"column:username"`
	DisplayName string `json:"displayName" bson:"displayName" gorm:"column:displayName"`
	Email       string `json:"email,omitempty" bson:"email,omitempty" gorm:"column:email"`
	CreatedAt   string `json:"createdAt" bson:"createdAt" gorm:"column:createdAt"`
}

func (u User) DocumentID() string { return u.ID }
