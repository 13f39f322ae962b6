// Command bridgectl republishes the preview stream to websocket
// subscribers and exposes stream metrics over HTTP.
package main

import (
	"errors"
	"flag"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/mocapkit/mocapctl/internal/bridge"
	"github.com/mocapkit/mocapctl/internal/client"
	"github.com/mocapkit/mocapctl/internal/config"
	"github.com/mocapkit/mocapctl/internal/format"
	"github.com/mocapkit/mocapctl/internal/logging"
	"github.com/mocapkit/mocapctl/internal/nodemap"
	"github.com/mocapkit/mocapctl/internal/observability"
)

var startedAt = time.Now()

func main() {
	logging.ConfigureRuntime()
	observability.RegisterMetrics()

	host := flag.String("host", "", "service host, IPv4 dotted-quad")
	listen := flag.String("listen", ":8045", "bridge HTTP listen address")
	origins := flag.String("origins", "http://localhost:3000", "allowed CORS origin")
	flag.Parse()

	hub := bridge.NewHub()
	defer hub.Close()

	go streamPreview(hub, *host)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.With().Str("app", "bridgectl").Logger()))
	r.Use(observability.RequestMetricsMiddleware("bridgectl"))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{*origins},
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"uptime":      time.Since(startedAt).String(),
			"service":     "bridgectl",
			"session":     hub.Session(),
			"subscribers": hub.SubscriberCount(),
		})
	})
	r.GET("/stream", hub.Handle)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("listen", *listen).Str("session", hub.Session()).Msg("bridge started")
	if err := r.Run(*listen); err != nil {
		log.Fatal().Err(err).Msg("bridge stopped")
	}
}

// streamPreview keeps a preview connection alive and feeds every decoded
// sample into the hub. Lost connections are redialed with a short pause.
func streamPreview(hub *bridge.Hub, host string) {
	for {
		if err := pump(hub, host); err != nil {
			log.Warn().Err(err).Msg("preview stream interrupted")
		}
		time.Sleep(time.Second)
	}
}

func pump(hub *bridge.Hub, host string) error {
	c, err := client.Dial(host, config.PortPreview)
	if err != nil {
		return err
	}
	defer func() {
		if c.IsConnected() {
			_ = c.Close()
		}
	}()

	if err := c.WaitForData(-1); err != nil {
		return err
	}

	names := map[uint32]string{}
	if document, ok := c.XMLString(); ok {
		if parsed, err := nodemap.Parse(document); err == nil {
			names = parsed
		}
	}

	for {
		payload, err := c.ReadData(-1)
		if errors.Is(err, client.ErrTimeout) {
			observability.RecordStreamTimeout(config.ServicePreview)
			continue
		}
		if err != nil {
			return err
		}
		observability.RecordStreamMessage(config.ServicePreview, len(payload))

		elements := format.PreviewList(payload)
		if len(elements) == 0 {
			observability.RecordDecodeFailure(config.ServicePreview)
			continue
		}
		hub.Broadcast(time.Now(), nodeSamples(elements, names))
	}
}

func nodeSamples(elements []format.PreviewElement, names map[uint32]string) []bridge.NodeSample {
	nodes := make([]bridge.NodeSample, 0, len(elements))
	for _, e := range elements {
		sample := bridge.NodeSample{
			Key:  e.Key(),
			Name: names[e.Key()],
		}
		copy(sample.Quaternion[:], e.Quaternion(false))
		copy(sample.Euler[:], e.Euler())
		copy(sample.Acceleration[:], e.Accelerate())
		nodes = append(nodes, sample)
	}
	return nodes
}
