package mission

import (
	"log/slog"
	"sync"

	"github.com/bannercarrier/extension/pkg/core"
)

// Context holds the battle currently being fought.
type Context struct {
	mu      sync.RWMutex
	battle  *core.BattleInfo
	errored bool
}

// NewContext creates a Context with no battle loaded.
func NewContext() *Context {
	return &Context{}
}

// GetBattle returns the current battle, nil between battles.
func (mc *Context) GetBattle() *core.BattleInfo {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.battle
}

// SetBattle sets the current battle and clears the errored flag.
func (mc *Context) SetBattle(b *core.BattleInfo) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.battle = b
	mc.errored = false
}

// ClearBattle forgets the current battle.
func (mc *Context) ClearBattle() {
	mc.SetBattle(nil)
}

// SetErrored records that the battle's controller disabled itself.
func (mc *Context) SetErrored(errored bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errored = errored
}

// Errored reports whether the current battle's controller is disabled.
func (mc *Context) Errored() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.errored
}

// LogAttrs returns the attributes stamped on every log record while a battle
// is running.
func (mc *Context) LogAttrs() []slog.Attr {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.battle == nil {
		return nil
	}
	return []slog.Attr{
		slog.String("battle", mc.battle.ID),
		slog.Bool("errored", mc.errored),
	}
}
