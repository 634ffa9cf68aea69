package tcp

import (
	"bufio"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"islebound.gg/internal/protocol"
	"islebound.gg/internal/sim/catalogs"
	"islebound.gg/internal/sim/regions"
	"islebound.gg/internal/sim/tuning"
	"islebound.gg/internal/sim/world"
)

type memChars struct {
	mu    sync.Mutex
	chars map[string]world.CharacterState
}

func (m *memChars) Load(name string) (world.CharacterState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chars[name]
	return c, ok, nil
}

func (m *memChars) Save(c world.CharacterState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chars[c.Name] = c
}

func (m *memChars) Flush() {}

func startServer(t *testing.T) (*regions.Manager, net.Addr) {
	t.Helper()
	content := &catalogs.Catalogs{
		Items:     catalogs.ItemCatalog{Defs: map[string]catalogs.ItemDef{}},
		Quests:    catalogs.QuestCatalog{Defs: map[string]catalogs.QuestDef{}},
		NPCs:      catalogs.NPCCatalog{Defs: map[string]catalogs.NPCDef{}},
		Creatures: catalogs.CreatureCatalog{Defs: map[string]catalogs.CreatureDef{}},
		Zones:     catalogs.ZoneCatalog{Defs: map[string]catalogs.ZoneDef{}},
		Regions: catalogs.RegionCatalog{
			Defs: map[string]catalogs.RegionDef{"isle": {Name: "isle"}},
		},
		Circuits: catalogs.CircuitCatalog{Defs: map[string]catalogs.CircuitDef{}},
	}
	tun := tuning.Default()
	tun.TickRateHz = 100

	chars := &memChars{chars: map[string]world.CharacterState{}}
	w := world.New("isle", 1, content, tun, nil)
	w.SetSaveFunc(chars.Save)
	mgr, err := regions.NewManager(map[string]*world.World{"isle": w}, "isle", chars, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = mgr.Run(ctx) }()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := NewServer(mgr, nil)
	go func() { _ = srv.Serve(ctx, ln) }()

	t.Cleanup(cancel)
	return mgr, ln.Addr()
}

func dial(t *testing.T, addr net.Addr) (net.Conn, *protocol.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, protocol.NewReader(bufio.NewReader(conn))
}

func send(t *testing.T, conn net.Conn, evs ...protocol.Event) {
	t.Helper()
	var w protocol.Writer
	protocol.EncodeAll(&w, evs...)
	_, err := conn.Write(w.Bytes())
	require.NoError(t, err)
}

// readUntil decodes server records until match returns true or the
// deadline passes.
func readUntil(t *testing.T, conn net.Conn, r *protocol.Reader, match func(protocol.Event) bool) protocol.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		ev, err := protocol.Decode(r, protocol.ServerEvents)
		require.NoError(t, err, "stream ended before the expected record")
		if match(ev) {
			return ev
		}
	}
}

func TestHandshakeWelcomeAndChat(t *testing.T) {
	mgr, addr := startServer(t)
	conn, r := dial(t, addr)

	send(t, conn, &protocol.Hello{Version: protocol.Version, Name: "mara"})
	ev := readUntil(t, conn, r, func(ev protocol.Event) bool {
		_, ok := ev.(*protocol.Welcome)
		return ok
	})
	wl := ev.(*protocol.Welcome)
	require.Equal(t, "isle", wl.Region)
	require.NotZero(t, wl.PlayerID)

	send(t, conn, &protocol.ChatSay{Text: "ahoy"})
	ev = readUntil(t, conn, r, func(ev protocol.Event) bool {
		_, ok := ev.(*protocol.Chat)
		return ok
	})
	require.Equal(t, "mara: ahoy", ev.(*protocol.Chat).Line)

	players, err := mgr.ListPlayers()
	require.NoError(t, err)
	require.Len(t, players, 1)
}

func TestDisconnectDetachesPlayer(t *testing.T) {
	mgr, addr := startServer(t)
	conn, r := dial(t, addr)

	send(t, conn, &protocol.Hello{Version: protocol.Version, Name: "mara"})
	readUntil(t, conn, r, func(ev protocol.Event) bool {
		_, ok := ev.(*protocol.Welcome)
		return ok
	})
	require.NoError(t, conn.Close())

	deadline := time.Now().Add(3 * time.Second)
	for {
		players, err := mgr.ListPlayers()
		require.NoError(t, err)
		if len(players) == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("player never left after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRejectsWrongVersion(t *testing.T) {
	_, addr := startServer(t)
	conn, _ := dial(t, addr)

	send(t, conn, &protocol.Hello{Version: protocol.Version + 1, Name: "mara"})

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, 1)
	_, err := conn.Read(buf)
	require.Error(t, err, "server closes without a welcome")
}

func TestRejectsNonHelloFirstRecord(t *testing.T) {
	_, addr := startServer(t)
	conn, _ := dial(t, addr)

	send(t, conn, &protocol.ChatSay{Text: "no hello"})

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, 1)
	_, err := conn.Read(buf)
	require.Error(t, err)
}

func TestKeepaliveAckIgnored(t *testing.T) {
	mgr, addr := startServer(t)
	conn, r := dial(t, addr)

	send(t, conn, &protocol.Hello{Version: protocol.Version, Name: "mara"})
	readUntil(t, conn, r, func(ev protocol.Event) bool {
		_, ok := ev.(*protocol.Welcome)
		return ok
	})

	send(t, conn, protocol.Ack{})
	send(t, conn, &protocol.ChatSay{Text: "still here"})
	readUntil(t, conn, r, func(ev protocol.Event) bool {
		c, ok := ev.(*protocol.Chat)
		return ok && c.Line == "mara: still here"
	})

	players, err := mgr.ListPlayers()
	require.NoError(t, err)
	require.Len(t, players, 1)
}
