package bot

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// chatLimiter paces outgoing messages per chat. Telegram throttles bots
// sending more than about one message per second to the same chat.
type chatLimiter struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	chats map[int64]*rate.Limiter
}

// newChatLimiter returns nil, which never waits, when perSecond is zero.
func newChatLimiter(perSecond float64, burst int) *chatLimiter {
	if perSecond <= 0 {
		return nil
	}
	return &chatLimiter{
		limit: rate.Limit(perSecond),
		burst: max(burst, 1),
		chats: make(map[int64]*rate.Limiter),
	}
}

// Wait blocks until chatID may receive another message or ctx is done.
func (l *chatLimiter) Wait(ctx context.Context, chatID int64) error {
	if l == nil {
		return nil
	}
	return l.get(chatID).Wait(ctx)
}

func (l *chatLimiter) get(chatID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.chats[chatID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.chats[chatID] = lim
	}
	return lim
}
