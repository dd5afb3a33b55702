package main

import (
	"github.com/lixenwraith/logsink"
	"github.com/lixenwraith/logsink/compat"
	"github.com/panjf2000/gnet/v2"
)

// Example gnet event handler
type echoServer struct {
	gnet.BuiltinEventEngine
	log *logsink.CategoryLogger
}

func (es *echoServer) OnBoot(eng gnet.Engine) gnet.Action {
	es.log.Info("echo server ready")
	return gnet.None
}

func (es *echoServer) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	es.log.Info("connection opened from", c.RemoteAddr())
	return nil, gnet.None
}

func (es *echoServer) OnClose(c gnet.Conn, err error) gnet.Action {
	if err != nil {
		es.log.Critical("connection closed with error:", err)
	}
	return gnet.None
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	c.Write(buf)
	return gnet.None
}

func main() {
	sink := logsink.NewSink()
	err := sink.ApplyOverride(
		"name=gnet-echo",
		"filter=terse",
	)
	if err != nil {
		panic(err)
	}
	if err := sink.Start(); err != nil {
		panic(err)
	}
	defer sink.Shutdown()

	// gnet's own diagnostics go to the "gnet" category
	gnetAdapter := compat.NewGnetAdapter(sink)

	// Configure gnet server with the logger
	err = gnet.Run(
		&echoServer{log: sink.Category("echo")},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(gnetAdapter),
		gnet.WithReusePort(true),
	)
	if err != nil {
		sink.Category("echo").Fatal("gnet stopped:", err)
	}
}
