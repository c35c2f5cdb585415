package auth

import (
	"encoding/json"
	"time"

	"idcops-service/service/models"
	"idcops-service/service/storage"
	"idcops-service/service/utils"

	"golang.org/x/crypto/bcrypt"
)

// userSchema 用户规范化；旧版明文 password 在加载时替换为 bcrypt 摘要
type userSchema struct {
	cost int
}

func (userSchema) Slot() string { return storage.SlotUsers }

func (s userSchema) Normalize(raw json.RawMessage, fallbackID int64) models.User {
	f, ok := utils.DecodeFields(raw)
	if !ok {
		return models.User{ID: fallbackID}
	}
	id, ok := f.Int64("id")
	if !ok || id <= 0 {
		id = fallbackID
	}
	u := models.User{
		ID:           id,
		Username:     f.StringOr("", "username"),
		PasswordHash: f.StringOr("", "passwordHash"),
		Role:         f.StringOr("", "role"),
	}
	if plain, ok := f.String("password"); ok && plain != "" {
		if hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost); err == nil {
			u.PasswordHash = string(hash)
		}
	}
	return u
}

func (userSchema) ID(u models.User) int64 { return u.ID }

func (userSchema) SetID(u *models.User, id int64) { u.ID = id }

func (userSchema) Prepare(*models.User, time.Time) {}
