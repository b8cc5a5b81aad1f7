// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer はタスクのタイトル・説明文として受け取った文字列を
// サニタイズし、保存データ経由のXSSからAPI利用者を保護する。
// bluemondayの許可リストベースのポリシーを使用する。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer はユーザー入力テキストのサニタイズ機能のインターフェース。
type ContentSanitizer interface {
	// Sanitize は入力文字列からHTMLタグとイベント属性をすべて除去して返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerの新しいインスタンスを生成する。
// タスクのフィールドはプレーンテキストとして扱うため、StrictPolicy
// （全タグ除去）を使用する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力文字列からHTMLタグをすべて除去して返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}

// compile-time interface check
var _ ContentSanitizer = (*contentSanitizer)(nil)
