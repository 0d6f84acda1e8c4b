package models

import (
	"gorm.io/gorm"
)

// User モデルの定義。ゲスト用の匿名ユーザーのみ
type User struct {
	gorm.Model
	Nickname string `gorm:"size:50"`
}
