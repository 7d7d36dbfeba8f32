package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/txwire/internal/auth"
	"github.com/danmuck/txwire/internal/protocol"
	"github.com/danmuck/txwire/internal/protocol/convert"
	"github.com/danmuck/txwire/internal/protocol/packet"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0"

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":           true,
			"service":         s.Name,
			"packet_capacity": convert.PacketDataSize,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1", auth.Middleware(s.auth))
	v1.POST("/packets/decode", s.decodePacket)
	v1.POST("/transactions/encode", s.encodeTransaction)
}

func (s *Server) decodePacket(c *gin.Context) {
	pkt, err := readPacket(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := s.pipeline.Decode(pkt)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transaction": tx,
		"version":     tx.Message.Version,
		"encoded_len": len(raw),
	})
}

func (s *Server) encodeTransaction(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	var tx protocol.Transaction
	if err := c.ShouldBindJSON(&tx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pkt, err := s.pipeline.Encode(&tx)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if wantsProto(c.GetHeader("Accept")) {
		c.Data(http.StatusOK, packet.ContentType, pkt.MarshalProto())
		return
	}
	c.JSON(http.StatusOK, gin.H{"packet": pkt})
}

// readPacket accepts either a protobuf Packet body or its JSON form.
func readPacket(c *gin.Context) (packet.Packet, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	if wantsProto(c.ContentType()) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return packet.Packet{}, err
		}
		return packet.UnmarshalProto(body)
	}
	var pkt packet.Packet
	if err := c.ShouldBindJSON(&pkt); err != nil {
		if errors.Is(err, io.EOF) {
			return packet.Packet{}, errors.New("empty body")
		}
		return packet.Packet{}, err
	}
	return pkt, nil
}

func wantsProto(mediaType string) bool {
	return strings.Contains(strings.ToLower(mediaType), packet.ContentType)
}
