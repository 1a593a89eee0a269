package rcp

import (
	"context"
	"testing"

	"github.com/pior/rcp/internal/testutils"
	"github.com/pior/rcp/protocol"
)

func BenchmarkClientGet(b *testing.B) {
	console := testutils.NewFakeConsole(b, nil)
	console.SetParam("MIXER:Current/InCh/Fader/Level", protocol.IntValue(-1000), "0", "0")
	client := dialTestClient(b, console.Addr(), Config{CallTimeout: testTimeout})
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := client.Get(ctx, "MIXER:Current/InCh/Fader/Level", 0, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkClientGetParallel(b *testing.B) {
	console := testutils.NewFakeConsole(b, nil)
	console.SetParam("MIXER:Current/InCh/Fader/Level", protocol.IntValue(-1000), "0", "0")
	client := dialTestClient(b, console.Addr(), Config{CallTimeout: testTimeout})
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := client.Get(ctx, "MIXER:Current/InCh/Fader/Level", 0, 0); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func BenchmarkPoolGetParallel(b *testing.B) {
	console := testutils.NewFakeConsole(b, nil)
	console.SetParam("MIXER:Current/InCh/Fader/Level", protocol.IntValue(-1000), "0", "0")

	pool, err := NewPool(console.Addr(), PoolConfig{Config: Config{CallTimeout: testTimeout}, MaxSize: 4})
	if err != nil {
		b.Fatal(err)
	}
	defer pool.Close()

	cmd, err := protocol.Get("MIXER:Current/InCh/Fader/Level", 0, 0)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := pool.Send(ctx, cmd); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
