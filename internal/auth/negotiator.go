package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/somchai/helpdesk/internal/backend"
	"github.com/somchai/helpdesk/internal/model"
	"github.com/somchai/helpdesk/internal/repository"
)

// LinkingAPI はアカウント連携に必要なバックエンド操作。
type LinkingAPI interface {
	// VerifyLineCode は認可コードをLINEユーザーIDに解決する。
	VerifyLineCode(ctx context.Context, code string) (string, error)
	// VerifyLinking は連携を検証・確定する。
	VerifyLinking(ctx context.Context, token string, req backend.LinkingVerifyRequest) error
}

// Metrics は認証フローの計測インターフェース。
type Metrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordLinkOutcome(state model.LinkingState)
}

// nopMetrics は計測を行わないMetrics実装。
type nopMetrics struct{}

func (nopMetrics) RecordLoginSuccess()                        {}
func (nopMetrics) RecordLoginFailure()                        {}
func (nopMetrics) RecordLinkOutcome(state model.LinkingState) {}

// Outcome は連携試行の結果を表す。
type Outcome struct {
	// State は連携フローの最終状態。
	State model.LinkingState
	// RedirectPath はLINKED時の遷移先。
	RedirectPath string
	// Err はLINKED以外の状態での利用者向けエラー。
	Err *model.APIError
	// CanForce はCONFLICT状態からの強制再連携が可能かどうか。
	CanForce bool
}

// Negotiator はアカウント連携の状態遷移を進める。
// 遷移はINIT → EXCHANGING_CODE → VERIFYING_LINK →
// {LINKED, CONFLICT, FAILED}、CONFLICT → FORCE_LINKING → LINKEDの順で、
// 競合時の引き継ぎ値（LINEユーザーIDと検証トークン）は
// LinkingRepositoryに保存して強制再連携まで持ち越す。
type Negotiator struct {
	api     LinkingAPI
	store   repository.LinkingRepository
	logger  *slog.Logger
	metrics Metrics
}

// NewNegotiator はNegotiatorを生成する。
func NewNegotiator(api LinkingAPI, store repository.LinkingRepository, logger *slog.Logger, metrics Metrics) *Negotiator {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Negotiator{
		api:     api,
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// CompleteLinking は連携コールバックを処理する。
// セッションが不完全な場合はネットワーク呼び出しを行わずに失敗する。
// 認可コードは一度しか交換できないため、重複コールバックは
// コード使用権の取得で弾く。
func (n *Negotiator) CompleteLinking(ctx context.Context, sess *model.Session, code, verificationToken string) Outcome {
	if !sess.Complete() {
		n.logger.Warn("linking attempted without complete session")
		return n.outcome(Outcome{State: model.LinkingStateFailed, Err: model.NewMissingUserDataError()})
	}

	acquired, err := n.store.AcquireCodeOnce(ctx, code)
	if err != nil {
		n.logger.Error("failed to acquire code guard", slog.String("error", err.Error()))
		return n.outcome(Outcome{State: model.LinkingStateFailed, Err: model.NewLinkFailedError("")})
	}
	if !acquired {
		// 同じコードでのコールバックが既に処理中または処理済み
		n.logger.Warn("duplicate linking callback ignored", slog.String("user_id", sess.UserID))
		return n.outcome(Outcome{State: model.LinkingStateFailed, Err: model.NewCodeExchangeFailedError()})
	}

	n.logger.Info("linking state transition",
		slog.String("user_id", sess.UserID),
		slog.String("state", string(model.LinkingStateExchangingCode)),
	)
	lineUserID, err := n.api.VerifyLineCode(ctx, code)
	if err != nil {
		n.logger.Error("line code exchange failed",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		return n.outcome(Outcome{State: model.LinkingStateFailed, Err: model.NewCodeExchangeFailedError()})
	}

	n.logger.Info("linking state transition",
		slog.String("user_id", sess.UserID),
		slog.String("state", string(model.LinkingStateVerifyingLink)),
	)
	verifyErr := n.api.VerifyLinking(ctx, sess.Token, backend.LinkingVerifyRequest{
		UserID:            sess.UserID,
		LineUserID:        lineUserID,
		VerificationToken: verificationToken,
		Force:             false,
	})
	if verifyErr == nil {
		n.finish(ctx, sess.UserID)
		return n.outcome(Outcome{
			State:        model.LinkingStateLinked,
			RedirectPath: LandingAfterLinking(sess.Role),
		})
	}

	be, ok := backend.AsError(verifyErr)
	if ok && be.Kind == backend.KindConflict {
		// 強制再連携に備えて引き継ぎ値を保存する
		req := &model.LinkingRequest{
			UserID:            sess.UserID,
			LineUserID:        lineUserID,
			VerificationToken: verificationToken,
			CreatedAt:         time.Now(),
		}
		if err := n.store.SaveRequest(ctx, req); err != nil {
			n.logger.Error("failed to save linking request", slog.String("error", err.Error()))
			return n.outcome(Outcome{State: model.LinkingStateFailed, Err: model.NewLinkFailedError("")})
		}
		n.logger.Info("linking conflict detected", slog.String("user_id", sess.UserID))
		return n.outcome(Outcome{
			State:    model.LinkingStateConflict,
			Err:      model.NewLinkConflictError(),
			CanForce: true,
		})
	}

	return n.outcome(Outcome{State: model.LinkingStateFailed, Err: n.verifyError(sess.UserID, verifyErr)})
}

// ForceLinking はCONFLICT状態から連携の上書きを要求する。
// 引き継ぎ値が存在しない・不完全な場合はネットワーク呼び出しを
// 行わずに失敗する。
func (n *Negotiator) ForceLinking(ctx context.Context, sess *model.Session) Outcome {
	if !sess.Complete() {
		return n.outcome(Outcome{State: model.LinkingStateFailed, Err: model.NewMissingUserDataError()})
	}

	req, err := n.store.FindRequest(ctx, sess.UserID)
	if err != nil {
		n.logger.Error("failed to load linking request", slog.String("error", err.Error()))
		return n.outcome(Outcome{State: model.LinkingStateFailed, Err: model.NewLinkFailedError("")})
	}
	if !req.Complete() {
		n.logger.Warn("force linking without carried values", slog.String("user_id", sess.UserID))
		return n.outcome(Outcome{State: model.LinkingStateFailed, Err: model.NewLinkIncompleteError()})
	}

	n.logger.Info("linking state transition",
		slog.String("user_id", sess.UserID),
		slog.String("state", string(model.LinkingStateForceLinking)),
	)
	verifyErr := n.api.VerifyLinking(ctx, sess.Token, backend.LinkingVerifyRequest{
		UserID:            sess.UserID,
		LineUserID:        req.LineUserID,
		VerificationToken: req.VerificationToken,
		Force:             true,
	})
	if verifyErr == nil {
		n.finish(ctx, sess.UserID)
		return n.outcome(Outcome{
			State:        model.LinkingStateLinked,
			RedirectPath: LandingAfterLinking(sess.Role),
		})
	}

	if be, ok := backend.AsError(verifyErr); ok && be.Kind == backend.KindExpired {
		// リンクが死んでいるので引き継ぎ値も破棄する
		n.finish(ctx, sess.UserID)
		return n.outcome(Outcome{State: model.LinkingStateFailed, Err: model.NewLinkExpiredError()})
	}
	return n.outcome(Outcome{State: model.LinkingStateFailed, Err: n.verifyError(sess.UserID, verifyErr)})
}

// verifyError は連携検証エラーを利用者向けAPIErrorへ変換する。
func (n *Negotiator) verifyError(userID string, err error) *model.APIError {
	n.logger.Error("linking verification failed",
		slog.String("user_id", userID),
		slog.String("error", err.Error()),
	)
	be, ok := backend.AsError(err)
	if !ok {
		return model.NewLinkFailedError("")
	}
	if be.Kind == backend.KindExpired {
		return model.NewLinkExpiredError()
	}
	if be.StatusCode == 0 {
		// 通信エラーはバックエンドメッセージを持たない
		return model.NewLinkFailedError("")
	}
	return model.NewLinkFailedError(be.Message)
}

// finish は連携完了・断念時に引き継ぎ値を片付ける。
func (n *Negotiator) finish(ctx context.Context, userID string) {
	if err := n.store.DeleteRequest(ctx, userID); err != nil {
		n.logger.Error("failed to delete linking request", slog.String("error", err.Error()))
	}
}

func (n *Negotiator) outcome(o Outcome) Outcome {
	n.metrics.RecordLinkOutcome(o.State)
	return o
}
