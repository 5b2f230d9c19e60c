package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"time"

	"sentinelx/internal/config"
	"sentinelx/internal/model"
)

// datagram is the JSON layout emitted by the on-device sensor service over
// localhost UDP.
type datagram struct {
	TS  float64  `json:"ts"`
	Ax  float64  `json:"ax"`
	Ay  float64  `json:"ay"`
	Az  float64  `json:"az"`
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// UDPSource receives sensor datagrams from the process host's telemetry
// service and exposes them as a SensorSource.
type UDPSource struct {
	ch   chan model.SensorSample
	conn net.PacketConn
}

func StartUDP(ctx context.Context, cfg *config.Manager, logger *slog.Logger) (*UDPSource, error) {
	current := cfg.Get().Telemetry
	conn, err := net.ListenPacket("udp", current.UDP.Addr)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("udp sensor source listening", "addr", current.UDP.Addr)
	}
	src := &UDPSource{
		ch:   make(chan model.SensorSample, current.ChannelBuffer),
		conn: conn,
	}
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go src.readLoop(ctx, logger)
	return src, nil
}

func (u *UDPSource) Samples() <-chan model.SensorSample {
	return u.ch
}

func (u *UDPSource) readLoop(ctx context.Context, logger *slog.Logger) {
	defer close(u.ch)
	buf := make([]byte, 8192)
	for {
		_ = u.conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		n, _, err := u.conn.ReadFrom(buf)
		if err != nil {
			if stopReading(ctx, err) {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if logger != nil {
				logger.Warn("udp read error", "err", err)
			}
			continue
		}
		s, ok := decodeDatagram(buf[:n])
		if !ok {
			if logger != nil {
				logger.Debug("udp datagram discarded", "bytes", n)
			}
			continue
		}
		sendNonBlocking(ctx, u.ch, s, logger)
	}
}

// stopReading reports whether a receive error ends the loop. Only shutdown
// conditions qualify: a cancelled context or the socket closed underneath us.
// Everything else is transient and the loop keeps polling.
func stopReading(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, net.ErrClosed)
}

func decodeDatagram(data []byte) (model.SensorSample, bool) {
	var d datagram
	if err := json.Unmarshal(data, &d); err != nil {
		return model.SensorSample{}, false
	}
	s := model.SensorSample{
		Timestamp: time.Now().UTC(),
		Ax:        d.Ax,
		Ay:        d.Ay,
		Az:        d.Az,
	}
	if d.TS > 0 {
		sec := int64(d.TS)
		nsec := int64((d.TS - float64(sec)) * 1e9)
		s.Timestamp = time.Unix(sec, nsec).UTC()
	}
	if d.Lat != nil && d.Lon != nil {
		s.Point = &model.GeoPoint{Lat: *d.Lat, Lon: *d.Lon}
	}
	return s, true
}
