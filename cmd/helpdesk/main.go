// ヘルプデスクポータルBFFのエントリーポイント。
//
// サブコマンド:
//
//	serve       BFFサーバーを起動する（デフォルト）
//	worker      期限切れセッションのクリーンアップワーカーを起動する
//	migrate     データベースマイグレーションを実行する
//	healthcheck /health エンドポイントを確認する（Dockerヘルスチェック用）
package main

import (
	"log/slog"
	"os"

	"github.com/somchai/helpdesk/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
