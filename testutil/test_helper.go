/*
 * @module testutil/test_helper
 * @description 测试工具：可观察写入次数的键值存储、mock 存储、固定时钟与 HTTP 辅助
 * @architecture 测试基础设施
 * @rules 仅供 _test.go 使用
 * @dependencies testify, service/storage
 * @refs service/store, api/controllers
 */

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"idcops-service/service/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// ErrInjected 注入的存储故障
var ErrInjected = errors.New("injected storage failure")

// RecordingKV 内存存储，记录每个键的写入次数，可切换为写入失败
type RecordingKV struct {
	*storage.MemoryKV

	mu       sync.Mutex
	sets     map[string]int
	failSets bool
	failGets bool
}

// NewRecordingKV 创建记录型存储
func NewRecordingKV() *RecordingKV {
	return &RecordingKV{MemoryKV: storage.NewMemoryKV(), sets: make(map[string]int)}
}

func (r *RecordingKV) Get(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	fail := r.failGets
	r.mu.Unlock()
	if fail {
		return "", ErrInjected
	}
	return r.MemoryKV.Get(ctx, key)
}

func (r *RecordingKV) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	r.sets[key]++
	fail := r.failSets
	r.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return r.MemoryKV.Set(ctx, key, value)
}

// Seed 直接写入底层存储，不计入写入次数
func (r *RecordingKV) Seed(key, value string) {
	_ = r.MemoryKV.Set(context.Background(), key, value)
}

// Raw 读取底层存储
func (r *RecordingKV) Raw(key string) (string, bool) {
	v, err := r.MemoryKV.Get(context.Background(), key)
	return v, err == nil
}

// Sets 返回某个键的写入次数
func (r *RecordingKV) Sets(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets[key]
}

// FailSets 切换写入失败
func (r *RecordingKV) FailSets(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSets = fail
}

// FailGets 切换读取失败
func (r *RecordingKV) FailGets(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failGets = fail
}

// MockKV 基于 testify/mock 的存储
type MockKV struct {
	mock.Mock
}

func (m *MockKV) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockKV) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKV) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// FixedClock 返回固定时间的时钟
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// DecodeData 解析统一响应结构中的 data 字段
func (h *HTTPTestHelper) DecodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Status int             `json:"status"`
		Msg    string          `json:"msg"`
		Data   json.RawMessage `json:"data"`
	}
	if !assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope)) {
		return
	}
	if out != nil && len(envelope.Data) > 0 {
		assert.NoError(t, json.Unmarshal(envelope.Data, out))
	}
}
