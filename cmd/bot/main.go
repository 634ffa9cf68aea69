// Command bot is a scripted client: it connects over the websocket
// transport, mirrors the world through a ClientWorld, wanders around and
// chats. Useful for load tests and for watching a server from outside.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/geom"
	"islebound.gg/internal/sim/world"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "server websocket url")
		name   = flag.String("name", "bot", "character name")
		wander = flag.Float64("wander", 500, "wander radius around the spawn point")
		chatty = flag.Bool("chatty", true, "say something once in a while")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatal("dial", zap.String("url", *url), zap.Error(err))
	}
	defer conn.Close()

	client := world.NewClientWorld(nil, logger)
	client.Hello(*name)
	if err := flush(conn, client); err != nil {
		logger.Fatal("send hello", zap.Error(err))
	}

	msgs := make(chan []byte, 64)
	go func() {
		defer close(msgs)
		for {
			t, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if t == websocket.BinaryMessage {
				msgs <- msg
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var home geom.Vector3
	homed := false

	const stepDT = 100 * time.Millisecond
	ticker := time.NewTicker(stepDT)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			logger.Info("interrupted")
			return

		case msg, ok := <-msgs:
			if !ok {
				logger.Info("server closed the connection")
				return
			}
			if err := apply(client, msg, logger); err != nil {
				logger.Warn("bad batch", zap.Error(err))
			}
			if !homed && client.Self() != nil {
				home = client.Self().Pos
				homed = true
				logger.Info("joined",
					zap.String("region", client.Region()), zap.Uint32("id", client.SelfID()))
			}

		case <-ticker.C:
			client.Step(stepDT.Seconds())
			if self := client.Self(); self != nil && homed {
				act(client, self, rng, home, float32(*wander), *chatty)
			}
			if err := flush(conn, client); err != nil {
				logger.Warn("write failed", zap.Error(err))
				return
			}
		}
	}
}

// apply decodes every record in one server batch into the mirror. A
// region change is acknowledged immediately so the server re-binds us.
func apply(client *world.ClientWorld, msg []byte, logger *zap.Logger) error {
	r := protocol.NewReader(bytes.NewReader(msg))
	for {
		ev, err := protocol.Decode(r, protocol.ServerEvents)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		client.Apply(ev)
		switch e := ev.(type) {
		case *protocol.Chat:
			logger.Info("chat", zap.String("line", e.Line))
		case *protocol.RegionChange:
			logger.Info("changing region", zap.String("region", e.Region))
			client.RegionReady(e.Region)
		}
	}
}

// act is the bot's whole brain: pick a point near home now and then,
// steer toward it, and occasionally say where it is.
func act(client *world.ClientWorld, self *world.Player, rng *rand.Rand, home geom.Vector3, wander float32, chatty bool) {
	if rng.Intn(50) == 0 {
		target := geom.Vector3{
			X: home.X + (rng.Float32()*2-1)*wander,
			Y: home.Y + (rng.Float32()*2-1)*wander,
			Z: home.Z,
		}
		yaw := geom.Yaw(target.Sub(self.Pos))
		client.Move(self.Pos, geom.Rotation{Yaw: yaw}, 1, 0)
	} else if self.Forward != 0 && rng.Intn(20) == 0 {
		client.Move(self.Pos, self.Rot, 0, 0)
	}

	if chatty && rng.Intn(600) == 0 {
		client.Chat(fmt.Sprintf("wandering %s at %.0f,%.0f", client.Region(), self.Pos.X, self.Pos.Y))
	}
}

func flush(conn *websocket.Conn, client *world.ClientWorld) error {
	out := client.TakeOutgoing()
	if len(out) == 0 {
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.BinaryMessage, out)
}
