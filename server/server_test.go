package server_test

import (
	"context"
	"errors"
	"testing"

	"github.com/momentics/serbridge/api"
	"github.com/momentics/serbridge/control"
	"github.com/momentics/serbridge/internal/session"
	"github.com/momentics/serbridge/server"
	"github.com/momentics/serbridge/transport"
)

func TestNewServer_RequiresRunner(t *testing.T) {
	if _, err := server.NewServer(":0", nil); !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestServe_BeforeListen(t *testing.T) {
	s, err := server.NewServer("127.0.0.1:0", session.NewRunner(transport.SerialConfig{Name: "x", BaudRate: 9600}, 512))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Serve(context.Background()); !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestServer_RegistersProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	runner := session.NewRunner(transport.SerialConfig{Name: "x", BaudRate: 9600}, 512)
	if _, err := server.NewServer("127.0.0.1:8722", runner, server.WithDebug(dp)); err != nil {
		t.Fatal(err)
	}
	state := dp.DumpState()
	if state["server.addr"] != "127.0.0.1:8722" {
		t.Fatalf("server.addr = %v", state["server.addr"])
	}
	if _, ok := state["server.sessions"]; !ok {
		t.Fatal("sessions probe missing")
	}
}

func TestListen_Twice(t *testing.T) {
	s, err := server.NewServer("127.0.0.1:0", session.NewRunner(transport.SerialConfig{Name: "x", BaudRate: 9600}, 512))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Listen(ctx); err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer s.Close()
	if err := s.Listen(ctx); !errors.Is(err, server.ErrAlreadyRunning) {
		t.Fatalf("err = %v", err)
	}
}
