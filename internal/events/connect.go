package events

import (
	"NFTMarket/internal/config"

	"go.uber.org/zap"
)

// Connect подключает брокеры, заданные в конфигурации; без брокеров возвращает Nop.
// Недоступный брокер пропускается с предупреждением.
func Connect(cfg *config.Config, logger *zap.SugaredLogger) Publisher {
	var pubs Multi
	if cfg.NATSURL != "" {
		p, err := NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			logger.Warnw("NATS unavailable, archive events disabled", "url", cfg.NATSURL, "error", err)
		} else {
			pubs = append(pubs, p)
		}
	}
	if cfg.RedisAddr != "" {
		p, err := NewRedisPublisher(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Warnw("Redis unavailable, live events disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			pubs = append(pubs, p)
		}
	}
	if len(pubs) == 0 {
		return Nop{}
	}
	return pubs
}
