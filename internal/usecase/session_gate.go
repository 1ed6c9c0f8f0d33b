package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type SessionState string

const (
	StateSignedOut      SessionState = "signed-out"
	StateAuthenticating SessionState = "authenticating"
	StateSignedIn       SessionState = "signed-in"
	StateFailed         SessionState = "failed"
)

type Session struct {
	State  SessionState `json:"state"`
	UserID string       `json:"userId,omitempty"`
	Email  string       `json:"email,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// CatalogSyncStarter はサインイン中のユーザーのリモート購読を開始する約束。
type CatalogSyncStarter interface {
	StartCatalogSync(ctx context.Context, userID string) (stop func())
}

// SessionGate は「どのユーザーのデータがliveか」の所有権を一点で持つ。
// 端末モデルと同じく、同時にサインインできるのは1ユーザーだけ。
// サインインの切り替えは必ず前のユーザーの購読を止めてから行うので、
// 2ユーザーのデータが混ざることはない。
type SessionGate struct {
	mu      sync.Mutex
	session Session
	sync    CatalogSyncStarter
	stop    func()
	log     *zap.Logger
}

// DI
func NewSessionGate(sync CatalogSyncStarter, log *zap.Logger) *SessionGate {
	return &SessionGate{
		session: Session{State: StateSignedOut},
		sync:    sync,
		log:     log,
	}
}

// BeginAuth は認証中へ遷移する。購読はまだ動かさない。
func (g *SessionGate) BeginAuth() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = Session{State: StateAuthenticating}
}

// Fail は認証失敗へ遷移する。理由は画面にそのまま出せる短い文。
func (g *SessionGate) Fail(reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()
	g.session = Session{State: StateFailed, Reason: reason}
}

// SignIn はサインイン済みへ遷移し、そのユーザーのカタログ購読を開始する。
// 前のユーザーの購読が生きていれば先に止める。
func (g *SessionGate) SignIn(ctx context.Context, userID string, email string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()
	g.session = Session{State: StateSignedIn, UserID: userID, Email: email}
	g.stop = g.sync.StartCatalogSync(ctx, userID)

	g.log.Info("session signed in", zap.String("user_id", userID))
}

// SignOut は購読を止めてサインアウトへ戻す。
func (g *SessionGate) SignOut() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()
	g.session = Session{State: StateSignedOut}
}

// Current は現在のセッションを返す。
func (g *SessionGate) Current() Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

func (g *SessionGate) stopLocked() {
	if g.stop != nil {
		g.stop()
		g.stop = nil
	}
}
