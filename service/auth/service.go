/*
 * @module service/auth/service
 * @description 账号服务：注册、登录、退出与当前登录用户
 * @architecture 业务服务层 - 用户列表走 store，当前用户单独保存在 <namespace>-current 槽位
 * @stateFlow Register -> 写入用户 -> 自动登录；Login -> 校验摘要 -> 生成会话令牌 -> 写入 current
 * @rules
 *   - 密码只保存 bcrypt 摘要，对外返回的用户信息不含摘要
 *   - current 槽位读写失败只记录日志，内存中的会话为准
 * @dependencies golang.org/x/crypto/bcrypt, github.com/google/uuid, go.uber.org/zap
 * @refs api/controllers/auth_controller.go
 */

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"idcops-service/service/models"
	"idcops-service/service/storage"
	"idcops-service/service/store"
	"idcops-service/service/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUsernameTaken 用户名已存在
	ErrUsernameTaken = errors.New("用户名已存在")
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	// ErrInvalidInput 用户名或密码为空
	ErrInvalidInput = errors.New("用户名和密码不能为空")
)

// Service 账号服务
type Service struct {
	users      *store.Store[models.User]
	kv         storage.KV
	currentKey string
	cost       int
	logger     *zap.Logger

	mu      sync.RWMutex
	current *models.Session
}

// NewService 创建账号服务，cost <= 0 时使用 bcrypt 默认强度
func NewService(kv storage.KV, namespace string, cost int, opts store.Options) *Service {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:      store.New[models.User](kv, namespace, userSchema{cost: cost}, opts),
		kv:         kv,
		currentKey: storage.SlotKey(namespace, storage.SlotCurrent),
		cost:       cost,
		logger:     logger.Named("auth"),
	}
}

// Load 读取用户列表与当前登录用户
func (s *Service) Load(ctx context.Context) store.LoadReport {
	report := s.users.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil

	raw, err := s.kv.Get(ctx, s.currentKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("读取当前用户失败", zap.Error(err))
		}
		return report
	}
	var session models.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil || session.Username == "" {
		s.logger.Warn("当前用户数据无法解析，视为未登录")
		return report
	}
	s.current = &session
	return report
}

// Register 注册并自动登录
func (s *Service) Register(ctx context.Context, username, password, role string) (models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Session{}, ErrInvalidInput
	}
	if _, ok := s.findUser(username); ok {
		return models.Session{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.Session{}, err
	}
	user := s.users.Add(ctx, models.User{Username: username, PasswordHash: string(hash), Role: strings.TrimSpace(role)})
	s.logger.Info("用户注册", zap.String("username", user.Username), zap.String("role", user.Role))
	return s.startSession(ctx, user), nil
}

// Login 校验用户名密码并写入当前用户
func (s *Service) Login(ctx context.Context, username, password string) (models.Session, error) {
	user, ok := s.findUser(strings.TrimSpace(username))
	if !ok || user.PasswordHash == "" {
		return models.Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.Session{}, ErrInvalidCredentials
	}
	return s.startSession(ctx, user), nil
}

// Logout 清除当前用户
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	if err := s.kv.Remove(ctx, s.currentKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Error("清除当前用户失败", zap.Error(err))
	}
}

// Current 当前登录用户
func (s *Service) Current() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Session{}, false
	}
	return *s.current, true
}

// Authenticate 校验会话令牌
func (s *Service) Authenticate(token string) (models.Session, bool) {
	current, ok := s.Current()
	if !ok || token == "" || current.Token != token {
		return models.Session{}, false
	}
	return current, true
}

// Users 用户列表，不含密码摘要
func (s *Service) Users() []models.User {
	list := s.users.List()
	for i := range list {
		list[i].PasswordHash = ""
	}
	return list
}

func (s *Service) findUser(username string) (models.User, bool) {
	found := s.users.Filter(func(u models.User) bool { return u.Username == username })
	if len(found) == 0 {
		return models.User{}, false
	}
	return found[0], true
}

func (s *Service) startSession(ctx context.Context, user models.User) models.Session {
	session := models.Session{
		Username: user.Username,
		Role:     user.Role,
		Token:    uuid.NewString(),
		LoginAt:  utils.ISOTime(s.users.Now()),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &session

	data, err := json.Marshal(session)
	if err == nil {
		err = s.kv.Set(ctx, s.currentKey, string(data))
	}
	if err != nil {
		s.logger.Error("保存当前用户失败，仅保留内存会话", zap.Error(err))
	}
	return session
}
