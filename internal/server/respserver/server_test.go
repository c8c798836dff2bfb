package respserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/internal/notify"
	"github.com/yndnr/vaultlink-go/internal/telemetry/metric"
)

type testClient struct {
	t  *testing.T
	nc net.Conn
	br *bufio.Reader
}

func startServer(t *testing.T, cfg *Config) (*Server, *notify.Hub) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := notify.NewHub(8, logger)
	srv := New(cfg, hub, metric.NewRegistry(), logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv.Serve(context.Background(), ln)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		hub.Close()
	})
	return srv, hub
}

func dial(t *testing.T, srv *Server) *testClient {
	t.Helper()
	nc, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { nc.Close() })
	return &testClient{t: t, nc: nc, br: bufio.NewReader(nc)}
}

func (c *testClient) send(args ...string) {
	c.t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "*%d\r\n", len(args))
	for _, a := range args {
		fmt.Fprintf(&b, "$%d\r\n%s\r\n", len(a), a)
	}
	if _, err := c.nc.Write([]byte(b.String())); err != nil {
		c.t.Fatal(err)
	}
}

// readReply reads one reply and flattens it to strings.
func (c *testClient) readReply() []string {
	c.t.Helper()
	_ = c.nc.SetReadDeadline(time.Now().Add(2 * time.Second))
	line := c.readLine()
	switch line[0] {
	case '+', '-', ':':
		return []string{line}
	case '$':
		return []string{c.readBulk(line)}
	case '*':
		var n int
		fmt.Sscanf(line[1:], "%d", &n)
		out := make([]string, 0, n)
		for i := 0; i < n; i++ {
			el := c.readLine()
			if el[0] == '$' {
				out = append(out, c.readBulk(el))
			} else {
				out = append(out, el)
			}
		}
		return out
	}
	c.t.Fatalf("unexpected reply %q", line)
	return nil
}

func (c *testClient) readLine() string {
	c.t.Helper()
	line, err := c.br.ReadString('\n')
	if err != nil {
		c.t.Fatalf("read: %v", err)
	}
	return strings.TrimSuffix(line, "\r\n")
}

func (c *testClient) readBulk(header string) string {
	c.t.Helper()
	var n int
	fmt.Sscanf(header[1:], "%d", &n)
	if n < 0 {
		return "<nil>"
	}
	buf := make([]byte, n+2)
	if _, err := io.ReadFull(c.br, buf); err != nil {
		c.t.Fatal(err)
	}
	return string(buf[:n])
}

func assertReply(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServer_Ping(t *testing.T) {
	srv, _ := startServer(t, nil)
	c := dial(t, srv)

	c.send("PING")
	assertReply(t, c.readReply(), "+PONG")

	c.send("ping", "hello")
	assertReply(t, c.readReply(), "hello")

	c.send("PING", "a", "b")
	if r := c.readReply(); !strings.HasPrefix(r[0], "-ERR wrong number") {
		t.Errorf("reply = %q", r)
	}
}

func TestServer_UnknownCommand(t *testing.T) {
	srv, _ := startServer(t, nil)
	c := dial(t, srv)

	c.send("GET", "k")
	assertReply(t, c.readReply(), "-ERR unknown command 'GET'")
}

func TestServer_SubscribeReceivesMessages(t *testing.T) {
	srv, hub := startServer(t, nil)
	c := dial(t, srv)

	c.send("SUBSCRIBE", "s1", "s2")
	assertReply(t, c.readReply(), "subscribe", "s1", ":1")
	assertReply(t, c.readReply(), "subscribe", "s2", ":2")
	waitFor(t, func() bool { return hub.Subscribers() == 2 })

	msg := &domain.Message{Room: "s1", To: domain.TargetConnector, Type: domain.MessageAuthConfirmed,
		Data: map[string]any{"connected": true}}
	if err := hub.Publish(context.Background(), "s1", msg); err != nil {
		t.Fatal(err)
	}

	r := c.readReply()
	if len(r) != 3 || r[0] != "message" || r[1] != "s1" {
		t.Fatalf("push = %q", r)
	}
	var got domain.Message
	if err := json.Unmarshal([]byte(r[2]), &got); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if got.Type != domain.MessageAuthConfirmed || got.To != domain.TargetConnector {
		t.Errorf("payload = %+v", got)
	}

	// PING in subscribed mode uses the array form.
	c.send("PING")
	assertReply(t, c.readReply(), "pong", "")
}

func TestServer_Unsubscribe(t *testing.T) {
	srv, hub := startServer(t, nil)
	c := dial(t, srv)

	c.send("UNSUBSCRIBE")
	assertReply(t, c.readReply(), "unsubscribe", "<nil>", ":0")

	c.send("SUBSCRIBE", "a", "b")
	c.readReply()
	c.readReply()

	c.send("UNSUBSCRIBE", "a")
	assertReply(t, c.readReply(), "unsubscribe", "a", ":1")

	c.send("UNSUBSCRIBE")
	assertReply(t, c.readReply(), "unsubscribe", "b", ":0")

	waitFor(t, func() bool { return hub.Subscribers() == 0 })
}

func TestServer_MaxSubscriptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSubscriptions = 1
	srv, _ := startServer(t, cfg)
	c := dial(t, srv)

	c.send("SUBSCRIBE", "a", "b")
	assertReply(t, c.readReply(), "subscribe", "a", ":1")
	assertReply(t, c.readReply(), "-ERR too many subscriptions")
}

func TestServer_RateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CommandRate = 1
	srv, _ := startServer(t, cfg)
	c := dial(t, srv)

	c.send("PING")
	assertReply(t, c.readReply(), "+PONG")
	c.send("PING")
	assertReply(t, c.readReply(), "-ERR rate limit exceeded")
}

func TestServer_QuitReleasesSubscriptions(t *testing.T) {
	srv, hub := startServer(t, nil)
	c := dial(t, srv)

	c.send("SUBSCRIBE", "s1")
	c.readReply()
	c.send("QUIT")
	assertReply(t, c.readReply(), "+OK")

	waitFor(t, func() bool { return hub.Subscribers() == 0 })
}

func TestServer_ProtocolError(t *testing.T) {
	srv, _ := startServer(t, nil)
	c := dial(t, srv)

	if _, err := c.nc.Write([]byte("*1\r\n:1\r\n")); err != nil {
		t.Fatal(err)
	}
	if r := c.readReply(); !strings.HasPrefix(r[0], "-ERR resp: protocol error") {
		t.Errorf("reply = %q", r)
	}
}

func TestServer_ShutdownClosesSubscribers(t *testing.T) {
	srv, hub := startServer(t, nil)
	c := dial(t, srv)
	c.send("SUBSCRIBE", "s1")
	c.readReply()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	waitFor(t, func() bool { return hub.Subscribers() == 0 })

	_ = c.nc.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := c.br.ReadByte(); err == nil {
		t.Error("expected closed connection")
	}
}
