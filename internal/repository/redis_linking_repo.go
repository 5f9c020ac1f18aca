package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/somchai/helpdesk/internal/model"
)

const (
	linkingRequestKeyPrefix = "helpdesk:linking:request:"
	linkingCodeKeyPrefix    = "helpdesk:linking:code:"
)

// RedisLinkingRepo はRedisを使用した連携状態リポジトリ。
// 連携要求はTTL付きで保存され、期限切れは自動的に消える。
// 認可コードの使用済み判定にはSETNXを用い、コールバックの二重実行でも
// コード交換が高々一度しか行われないことを保証する。
type RedisLinkingRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLinkingRepo はRedisLinkingRepoを生成する。
// ttlは連携要求とコード使用済みマーカーの保持期間。
func NewRedisLinkingRepo(client *redis.Client, ttl time.Duration) *RedisLinkingRepo {
	return &RedisLinkingRepo{client: client, ttl: ttl}
}

// SaveRequest は連携要求を保存する。
func (r *RedisLinkingRepo) SaveRequest(ctx context.Context, req *model.LinkingRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal linking request: %w", err)
	}

	if err := r.client.Set(ctx, linkingRequestKeyPrefix+req.UserID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save linking request: %w", err)
	}
	return nil
}

// FindRequest は指定ユーザーの連携要求を取得する。未存在・期限切れはnilを返す。
func (r *RedisLinkingRepo) FindRequest(ctx context.Context, userID string) (*model.LinkingRequest, error) {
	data, err := r.client.Get(ctx, linkingRequestKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find linking request: %w", err)
	}

	req := &model.LinkingRequest{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal linking request: %w", err)
	}
	return req, nil
}

// DeleteRequest は指定ユーザーの連携要求を削除する。冪等。
func (r *RedisLinkingRepo) DeleteRequest(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, linkingRequestKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to delete linking request: %w", err)
	}
	return nil
}

// AcquireCodeOnce は認可コードの一回限りの使用権を取得する。
func (r *RedisLinkingRepo) AcquireCodeOnce(ctx context.Context, code string) (bool, error) {
	ok, err := r.client.SetNX(ctx, linkingCodeKeyPrefix+code, "1", r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire code guard: %w", err)
	}
	return ok, nil
}

// compile-time interface check
var _ LinkingRepository = (*RedisLinkingRepo)(nil)
