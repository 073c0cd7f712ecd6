package safe

import (
	"github.com/pulsechat/gateway/logger"
)

// Go starts a goroutine that recovers from panic, so a handler bug on
// one connection cannot take down the whole gateway process.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
