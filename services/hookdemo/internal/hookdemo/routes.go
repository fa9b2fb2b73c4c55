package hookdemo

import (
	"errors"

	"github.com/beanhook/pkg/middleware"
	"github.com/beanhook/pkg/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// RegisterRoutes 注册管理接口
func (s *Service) RegisterRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": s.name})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	g := app.Group("/api")
	g.Get("/beans", s.listBeans)
	g.Get("/events", s.listEvents)
	// 回放会写入镜像库，配置了密钥时需要令牌
	g.Post("/events/replay", middleware.JWTAuth(s.jwt), s.replayEvents)
	g.Get("/mirror/:key", s.getMirror)
}

func (s *Service) listBeans(c *fiber.Ctx) error {
	ls := s.container.Listeners()
	return response.Success(c, fiber.Map{
		"beans":     s.container.BeanNames(),
		"listeners": ls.Len(),
	})
}

func (s *Service) listEvents(c *fiber.Ctx) error {
	events := s.captured.Events()
	if limit := c.QueryInt("limit", 0); limit > 0 && limit < len(events) {
		events = events[len(events)-limit:]
	}
	return response.Success(c, events)
}

func (s *Service) replayEvents(c *fiber.Ctx) error {
	res, err := s.ReplayCaptured(c.UserContext())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, res)
}

func (s *Service) getMirror(c *fiber.Ctx) error {
	key := c.Params("key")
	v, err := s.mirror.Get(c.UserContext(), key).Result()
	if errors.Is(err, redis.Nil) {
		return response.NotFound(c, key)
	}
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, v)
}
